package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/beak"
	"github.com/anatolykoptev/beak/bundle"
	"github.com/anatolykoptev/beak/cookiejar"
)

// newCheckCmd probes every credential source and reports what each one can
// provide, without sending anything upstream.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check which credential sources work on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := clientConfig()
			if err != nil {
				return err
			}

			type probe struct {
				Source    string `json:"source"`
				AuthToken bool   `json:"authToken"`
				CT0       bool   `json:"ct0"`
				Error     string `json:"error,omitempty"`
			}
			var probes []probe

			sources := cfg.CookieSources
			if len(sources) == 0 {
				sources = cookiejar.DefaultOrder
			}
			for _, name := range sources {
				jar, err := beak.CheckSource(cmd.Context(), name, cfg.ChromeProfile, cfg.FirefoxProfile, cfg.CookieTimeout)
				p := probe{Source: name}
				if err != nil {
					p.Error = err.Error()
				} else {
					p.AuthToken = jar.AuthToken != ""
					p.CT0 = jar.CT0 != ""
				}
				probes = append(probes, p)
			}

			if rootFlags.jsonOut {
				return emitJSON(probes)
			}
			for _, p := range probes {
				if p.Error != "" {
					fmt.Printf("%s  %s\n", color.RedString("✗ %-8s", p.Source), dimColor.Sprint(p.Error))
					continue
				}
				mark := func(ok bool) string {
					if ok {
						return color.GreenString("yes")
					}
					return color.RedString("no")
				}
				fmt.Printf("%s  auth_token %s, ct0 %s\n", color.GreenString("✓ %-8s", p.Source), mark(p.AuthToken), mark(p.CT0))
			}
			return nil
		},
	}
}

// newQueryIDsCmd shows the persisted operation table and optionally forces
// a refresh from the live web bundles.
func newQueryIDsCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "query-ids",
		Short: "Show or refresh the GraphQL query-ID table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := beak.NewRegistry(rootFlags.cachePath, bundle.NewProbe().QueryIDs)

			if refresh {
				updated, err := registry.Refresh(cmd.Context(), true)
				if err != nil {
					return err
				}
				if !rootFlags.jsonOut {
					fmt.Println(color.GreenString("refreshed, %d binding(s) changed", updated))
				}
			}

			entries := registry.Entries()
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].OperationName < entries[j].OperationName
			})

			if rootFlags.jsonOut {
				return emitJSON(entries)
			}
			for _, e := range entries {
				verified := "never verified"
				if !e.LastVerifiedAt.IsZero() {
					verified = "verified " + e.LastVerifiedAt.Local().Format(time.DateTime)
				}
				fmt.Printf("%-26s %s  %s\n", e.OperationName, e.QueryID, dimColor.Sprint(verified))
			}
			fmt.Println(dimColor.Sprint("cache: " + registry.Path()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-derive the table from the live web bundles")
	return cmd
}
