package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"taskdeck/internal/gcal"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one configuration key",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configAuthCmd = &cobra.Command{
	Use:   "auth [code]",
	Short: "Authorize Google Calendar access",
	Long: `Without arguments, prints the Google OAuth consent URL. Open it, approve
access, then run the command again with the code Google gives you.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigAuth,
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configAuthCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if cfgPath != "" {
		err = cfg.SaveTo(cfgPath)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", args[0], args[1])
	return nil
}

func runConfigAuth(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		url, err := gcal.AuthURL()
		if err != nil {
			return err
		}
		fmt.Println("open this URL, approve access, then rerun with the code:")
		fmt.Println(url)
		return nil
	}
	if err := gcal.SaveToken(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("authorize calendar: %w", err)
	}
	fmt.Println("calendar access authorized")
	return nil
}
