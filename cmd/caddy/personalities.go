package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jasonnardone/voice-caddy/internal/commentary"
)

func newPersonalitiesCmd(root *rootFlags) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "personalities",
		Short: "List the available caddy personalities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				if cfg, _, err := loadConfig(cmd, root); err == nil {
					file = cfg.Commentary.PersonalitiesFile
				}
			}
			personas := commentary.Builtin()
			if file != "" {
				loaded, err := commentary.LoadPersonas(file)
				if err != nil {
					return err
				}
				personas = loaded
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tRATE\tEXAMPLE")
			for _, key := range personas.Keys() {
				p := personas[key]
				example := ""
				if len(p.Examples) > 0 {
					example = p.Examples[0]
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", key, p.Name, p.VoiceRate, example)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "personalities file to list instead of the configured one")
	return cmd
}
