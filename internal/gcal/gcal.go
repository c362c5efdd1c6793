// Package gcal creates calendar events through the Google Calendar API, as
// an alternative to the relay-endpoint transport for users who connect a
// Google account instead of deploying a script.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"taskdeck/internal/config"
	"taskdeck/internal/models"
	"taskdeck/internal/syncer"
)

const (
	credentialsFile = "credentials.json"
	tokenFile       = "token.json"
)

func credentialsPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, credentialsFile), nil
}

func tokenPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFile), nil
}

// OAuthConfig builds the oauth2 config from the user's downloaded
// credentials.json.
func OAuthConfig() (*oauth2.Config, error) {
	path, err := credentialsPath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read client secret file %s: %w", path, err)
	}
	cfg, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}
	return cfg, nil
}

// AuthURL returns the consent URL for the out-of-band authorization flow.
func AuthURL() (string, error) {
	cfg, err := OAuthConfig()
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// SaveToken exchanges an authorization code and caches the token.
func SaveToken(ctx context.Context, code string) error {
	cfg, err := OAuthConfig()
	if err != nil {
		return err
	}
	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange auth code: %w", err)
	}
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}

func loadToken() (*oauth2.Token, error) {
	path, err := tokenPath()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no cached token (run `taskdeck config auth` first): %w", err)
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode cached token: %w", err)
	}
	return tok, nil
}

// Client wraps the Calendar API for one target calendar.
type Client struct {
	srv        *calendar.Service
	calendarID string
}

// NewClient authenticates from the cached token and resolves the calendar
// with the given display name.
func NewClient(ctx context.Context, calendarName string) (*Client, error) {
	cfg, err := OAuthConfig()
	if err != nil {
		return nil, err
	}
	tok, err := loadToken()
	if err != nil {
		return nil, err
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	list, err := srv.CalendarList.List().Do()
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	for _, item := range list.Items {
		if item.Summary == calendarName {
			return &Client{srv: srv, calendarID: item.Id}, nil
		}
	}
	return nil, fmt.Errorf("calendar %q not found", calendarName)
}

// CreateEvent inserts an all-day event on the task's target date. The task
// id is kept in a private extended property so re-syncs upsert instead of
// duplicating.
func (c *Client) CreateEvent(ctx context.Context, t models.Task) (*calendar.Event, error) {
	if t.TargetDate == "" {
		return nil, syncer.ErrNoTargetDate
	}
	day, err := time.Parse(models.DateLayout, t.TargetDate)
	if err != nil {
		return nil, fmt.Errorf("parse target date: %w", err)
	}

	event := &calendar.Event{
		Summary:     syncer.EventTitle(t),
		Description: syncer.EventDescription(t),
		Start:       &calendar.EventDateTime{Date: t.TargetDate},
		End:         &calendar.EventDateTime{Date: day.AddDate(0, 0, 1).Format(models.DateLayout)},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{"taskdeck_id": t.ID},
		},
	}

	existing, err := c.findByTaskID(t.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		updated, err := c.srv.Events.Update(c.calendarID, existing.Id, event).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("update event: %w", err)
		}
		return updated, nil
	}
	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return created, nil
}

func (c *Client) findByTaskID(id string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty("taskdeck_id=" + id).
		MaxResults(1).
		Do()
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	if len(events.Items) == 0 {
		return nil, nil
	}
	return events.Items[0], nil
}
