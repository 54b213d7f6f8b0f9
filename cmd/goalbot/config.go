package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

var secretKeys = map[string]bool{
	"telegram.bot_token": true,
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := renderConfig(viper.GetViper())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	})
	return cmd
}

// renderConfig nests the known keys into a YAML document, masking
// secrets and printing DSNs without credentials.
func renderConfig(v *viper.Viper) (string, error) {
	root := map[string]any{}
	for _, key := range configKeys {
		val := v.Get(key)
		switch {
		case secretKeys[key] && v.GetString(key) != "":
			val = redacted
		case key == "database.dsn":
			val = redactDSN(v.GetString(key))
		}
		if d, ok := val.(fmt.Stringer); ok {
			val = d.String()
		}

		parts := strings.Split(key, ".")
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				child = map[string]any{}
				node[p] = child
			}
			node = child
		}
		node[parts[len(parts)-1]] = val
	}

	data, err := yaml.Marshal(root)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(data), nil
}

// redactDSN masks the password in URL-style DSNs.
func redactDSN(dsn string) string {
	scheme := strings.Index(dsn, "://")
	at := strings.LastIndex(dsn, "@")
	if scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return dsn[:scheme+3] + creds[:colon] + ":" + redacted + dsn[at:]
	}
	return dsn
}
