package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/app"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/audit"
	ctlerrors "github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/rules"
	"github.com/firefly-engineering/firefly-forage/packages/realm-ctl/internal/tui"
)

var rulesCmd = &cobra.Command{
	Use:     "rules",
	Aliases: []string{"rule"},
	Short:   "List, add and delete forwarding rules",
}

var rulesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List forwarding rules",
	Args:    cobra.NoArgs,
	RunE:    runRulesList,
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a forwarding rule and restart the service",
	Example: `  realm-ctl rules add --listen 0.0.0.0:10000 --remote-host example.com --remote-port 443
  realm-ctl rules add --listen [::]:8080 --remote-host 2001:db8::1 --remote-port 8080 --remark backup`,
	Args: cobra.NoArgs,
	RunE: runRulesAdd,
}

var rulesDeleteCmd = &cobra.Command{
	Use:     "delete <index>",
	Aliases: []string{"rm"},
	Short:   "Delete the forwarding rule at a 1-based index and restart the service",
	Args:    cobra.ExactArgs(1),
	RunE:    runRulesDelete,
}

var (
	rulesOutput string
	addRule     rules.NewRule
)

func init() {
	rulesListCmd.Flags().StringVarP(&rulesOutput, "output", "o", "table", "Output format: table, json or yaml")

	rulesAddCmd.Flags().StringVar(&addRule.Listen, "listen", "", "Listen address, host:port or [ipv6]:port")
	rulesAddCmd.Flags().StringVar(&addRule.RemoteHost, "remote-host", "", "Remote host or IP address")
	rulesAddCmd.Flags().StringVar(&addRule.RemotePort, "remote-port", "", "Remote port")
	rulesAddCmd.Flags().StringVar(&addRule.Remark, "remark", "", "Free-text remark")
	for _, f := range []string{"listen", "remote-host", "remote-port"} {
		_ = rulesAddCmd.MarkFlagRequired(f)
	}

	rulesCmd.AddCommand(rulesListCmd, rulesAddCmd, rulesDeleteCmd)
	rootCmd.AddCommand(rulesCmd)
}

func runRulesList(cmd *cobra.Command, args []string) error {
	return listRules(current(), cmd.OutOrStdout(), rulesOutput)
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	_, err := appendRule(cmd, current(), addRule)
	return err
}

func runRulesDelete(cmd *cobra.Command, args []string) error {
	_, err := deleteRule(cmd, current(), args[0])
	return err
}

// listRules writes the rules in the requested format. A missing
// configuration file is reported, not treated as a failure.
func listRules(a *app.App, w io.Writer, format string) error {
	list, err := a.Store.List()
	if err != nil && !errors.Is(err, rules.ErrNoConfig) {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(list); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		if errors.Is(err, rules.ErrNoConfig) {
			logWarning("No configuration file at %s", a.Store.Path())
			return nil
		}
		_, werr := io.WriteString(w, tui.RenderRules(list))
		return werr
	default:
		return ctlerrors.ValidationError(fmt.Sprintf("unknown output format %q (want table, json or yaml)", format))
	}
}

func appendRule(cmd *cobra.Command, a *app.App, n rules.NewRule) (*rules.MutationResult, error) {
	res, err := a.Store.Append(cmd.Context(), n)
	if err != nil {
		return nil, err
	}

	a.Record(audit.EventRuleAdd, res.Rule.Listen, fmt.Sprintf("index=%d remote=%s", res.Rule.Index, res.Rule.Remote))
	logSuccess("Added rule %d: %s", res.Rule.Index, describeRule(res.Rule))
	reportReload(a, res)
	return res, nil
}

func deleteRule(cmd *cobra.Command, a *app.App, input string) (*rules.MutationResult, error) {
	res, err := a.Store.Delete(cmd.Context(), input)
	if err != nil {
		if errors.Is(err, rules.ErrNoConfig) {
			return nil, ctlerrors.Wrap(ctlerrors.ExitConfigError, "no configuration file at "+a.Store.Path(), err)
		}
		return nil, err
	}

	a.Record(audit.EventRuleDelete, res.Rule.Listen, fmt.Sprintf("index=%d remote=%s", res.Rule.Index, res.Rule.Remote))
	logSuccess("Deleted rule %d: %s", res.Rule.Index, describeRule(res.Rule))
	reportReload(a, res)
	return res, nil
}
