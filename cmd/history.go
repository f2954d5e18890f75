package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var historyLimit int

var (
	historyTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	historyDimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	historyLinkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously published videos",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of entries")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	videos, err := s.pipeline.History(ctx, historyLimit)
	if err != nil {
		return err
	}

	if len(videos) == 0 {
		fmt.Println(historyDimStyle.Render("No published videos yet"))
		return nil
	}

	for _, v := range videos {
		fmt.Println(historyTitleStyle.Render(v.Title))
		fmt.Println("  " + historyLinkStyle.Render(v.URL))
		fmt.Println(historyDimStyle.Render(fmt.Sprintf("  %s · %s", v.PublishedAt.Local().Format("2006-01-02 15:04"), v.PrivacyStatus)))
		if v.ArchiveLocation != "" {
			fmt.Println(historyDimStyle.Render("  archived at " + v.ArchiveLocation))
		}
	}
	return nil
}
