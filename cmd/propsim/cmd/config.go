package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configOut string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration or write a starter file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if configOut != "" {
			if err := cfg.SaveToFile(configOut); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", configOut)
			return nil
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVarP(&configOut, "out", "o", "", "write the configuration to this file instead of stdout")
}
