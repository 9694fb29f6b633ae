package commands

import (
	"errors"
	"os"
	"sort"

	"seatwatch/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "Logs in and lists the academic terms the portal offers.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		client := newClient(cfg)
		if err := client.Login(ctx, false); err != nil {
			serviceutil.Fatal("failed to log in", err)
		}
		if !client.Authenticated() {
			serviceutil.Fatal("login did not produce a usable session", errors.New("not authenticated"))
		}

		terms, err := client.Terms(ctx)
		if err != nil {
			serviceutil.Fatal("failed to fetch terms", err)
		}

		ids := make([]string, 0, len(terms))
		for id := range terms {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Id", "Name", "Enrollable"})
		for _, id := range ids {
			term := terms[id]
			t.AppendRow(table.Row{term.Id, term.Name, term.Enrollable})
		}
		t.Render()
	},
}

func init() {
	rootCmd.AddCommand(termsCmd)
}
