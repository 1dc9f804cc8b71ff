package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/Cranyozen/warden-worker/middleware/ratelimit/application"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/domain"
	"github.com/Cranyozen/warden-worker/middleware/ratelimit/infra"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	v := newViper()

	root := &cobra.Command{
		Use:           "gateway",
		Short:         "Rate-limit gateway in front of the identity backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}
	root.PersistentFlags().String("listen", "", "listen address (LISTEN_ADDR)")
	root.PersistentFlags().String("upstream", "", "identity backend URL (UPSTREAM_URL)")
	root.PersistentFlags().String("policy-file", "", "YAML policy table (POLICY_FILE)")
	_ = v.BindPFlag("LISTEN_ADDR", root.PersistentFlags().Lookup("listen"))
	_ = v.BindPFlag("UPSTREAM_URL", root.PersistentFlags().Lookup("upstream"))
	_ = v.BindPFlag("POLICY_FILE", root.PersistentFlags().Lookup("policy-file"))

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the gateway (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "policies",
		Short: "Print the active rate-limit policy table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			policies, err := loadPolicies(v.GetString("POLICY_FILE"))
			if err != nil {
				return err
			}
			printPolicies(cmd.OutOrStdout(), application.NewPolicyTable(policies))
			return nil
		},
	})
	return root
}

func loadPolicies(path string) ([]domain.Policy, error) {
	if path == "" {
		return application.DefaultPolicies(), nil
	}
	policies, err := infra.LoadPolicies(path)
	if err != nil {
		return nil, err
	}
	if len(policies) == 0 {
		return nil, fmt.Errorf("policy file %s has no policies", path)
	}
	return policies, nil
}

// printPolicies mostra a tabela já deduplicada, como o gateway vai usá-la.
func printPolicies(out io.Writer, tbl application.PolicyTable) {
	sorted := tbl.Policies()
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Path", "Limiter", "Strategy"})
	for _, p := range sorted {
		t.AppendRow(table.Row{p.Path, p.LimiterName, string(p.Strategy)})
	}
	t.Render()
}
