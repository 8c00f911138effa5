package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"artzip/internal/api"
	"artzip/internal/community"
)

var (
	feedExhibition int64
	feedPages      int
	feedSize       int
	feedSort       string

	searchPage int
	searchSize int
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Print the community review feed",
	Args:  cobra.NoArgs,
	RunE:  runFeed,
}

var exhibitionsCmd = &cobra.Command{
	Use:   "exhibitions",
	Short: "Find and like exhibitions",
}

var exhibitionsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search exhibitions by name",
	Args:  cobra.ArbitraryArgs,
	RunE:  runExhibitionsSearch,
}

var exhibitionsLikeCmd = &cobra.Command{
	Use:   "like <exhibition-id>",
	Short: "Toggle your like on an exhibition",
	Args:  cobra.ExactArgs(1),
	RunE:  runExhibitionsLike,
}

func init() {
	feedCmd.Flags().Int64Var(&feedExhibition, "exhibition", 0, "Only reviews of this exhibition")
	feedCmd.Flags().IntVar(&feedPages, "pages", 1, "Number of pages to load")
	feedCmd.Flags().IntVar(&feedSize, "size", community.DefaultPageSize, "Reviews per page")
	feedCmd.Flags().StringVar(&feedSort, "sort", "", "Sort order: createdAt,desc or likeCount,desc")

	exhibitionsSearchCmd.Flags().IntVar(&searchPage, "page", 0, "0-indexed result page")
	exhibitionsSearchCmd.Flags().IntVar(&searchSize, "size", 8, "Results per page")
	exhibitionsCmd.AddCommand(exhibitionsSearchCmd, exhibitionsLikeCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	opts := []community.Option{community.WithPageSize(feedSize), community.WithLogger(logger)}
	if feedSort != "" {
		opts = append(opts, community.WithSort(feedSort))
	}
	feed := community.NewFeed(apiClient(), opts...)
	if err := feed.Load(ctx, feedExhibition); err != nil {
		return err
	}
	for i := 1; i < feedPages; i++ {
		more, err := feed.LoadMore(ctx)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}

	out := cmd.OutOrStdout()
	items := feed.Items()
	for _, rv := range items {
		printReview(out, rv)
	}
	if len(items) == 0 {
		fmt.Fprintln(out, "No reviews yet.")
	}
	if feed.HasMore() {
		fmt.Fprintln(out, "(more reviews available, raise --pages)")
	}
	return nil
}

func runExhibitionsSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	page, err := apiClient().SearchExhibitions(ctx, strings.Join(args, " "), searchPage, searchSize)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, e := range page.Content {
		printExhibition(out, e)
	}
	fmt.Fprintf(out, "page %d/%d (%d total)\n", page.PageNumber+1, max(page.TotalPages, 1), page.TotalElements)
	return nil
}

func runExhibitionsLike(cmd *cobra.Command, args []string) error {
	if err := session.RequireLogin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	state, err := apiClient().ToggleExhibitionLike(ctx, id)
	if err != nil {
		return err
	}
	verb := "Unliked"
	if state.IsLiked {
		verb = "Liked"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s exhibition %d (%d likes)\n", verb, id, state.LikeCount)
	return nil
}

func printExhibition(w io.Writer, e api.Exhibition) {
	fmt.Fprintf(w, "#%d %s (%s to %s) %d likes, %d reviews\n",
		e.ExhibitionID, e.Name, e.StartDate, e.EndDate, e.LikeCount, e.ReviewCount)
}
