package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"artzip/internal/api"
	"artzip/internal/profile"
)

var (
	profileTab  string
	profilePage int
	profileAll  bool
)

var profileCmd = &cobra.Command{
	Use:   "profile [user-id]",
	Short: "Show a user page with its review and like activity",
	Long: `Profile prints the user info followed by one activity tab.
Without a user id the logged-in user is shown. --all prints every tab.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProfile,
}

func init() {
	profileCmd.Flags().StringVar(&profileTab, "tab", string(profile.TabMyReview), "MY_REVIEW, LIKED_REVIEW or LIKED_EXHIBITION")
	profileCmd.Flags().IntVar(&profilePage, "page", 1, "1-indexed page of the selected tab")
	profileCmd.Flags().BoolVar(&profileAll, "all", false, "Print the first page of every tab")
}

func runProfile(cmd *cobra.Command, args []string) error {
	userID := session.UserID
	if len(args) == 1 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		userID = id
	}
	if userID == 0 {
		return fmt.Errorf("no user id given and not logged in")
	}
	tab, err := profile.ParseTab(profileTab)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pager := profile.NewPager(apiClient(), userID, logger)
	if err := pager.Start(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printUserInfo(out, pager.Info())

	if profileAll {
		if err := pager.LoadAll(ctx); err != nil {
			return err
		}
		printReviews(out, profile.TabMyReview, pager.MyReviews())
		printReviews(out, profile.TabLikedReview, pager.LikedReviews())
		printExhibitions(out, pager.LikedExhibitions())
		return nil
	}

	if err := pager.SelectTab(ctx, tab); err != nil {
		return err
	}
	if profilePage != 1 {
		if err := pager.ChangePage(ctx, tab, profilePage); err != nil {
			return err
		}
	}
	switch tab {
	case profile.TabMyReview:
		printReviews(out, tab, pager.MyReviews())
	case profile.TabLikedReview:
		printReviews(out, tab, pager.LikedReviews())
	case profile.TabLikedExhibition:
		printExhibitions(out, pager.LikedExhibitions())
	}
	return nil
}

func printUserInfo(w io.Writer, info *api.UserInfo) {
	fmt.Fprintf(w, "%s (user %d)\n", info.Nickname, info.UserID)
	if info.Email != "" {
		fmt.Fprintf(w, "  email: %s\n", info.Email)
	}
	fmt.Fprintf(w, "  reviews: %d  liked reviews: %d  liked exhibitions: %d\n",
		info.ReviewCount, info.ReviewLikeCount, info.ExhibitionLikeCount)
}

func printReviews(w io.Writer, tab profile.Tab, a profile.Activity[api.Review]) {
	fmt.Fprintf(w, "\n%s page %d/%d (%d total)\n", tab, a.CurrentPage, totalPages(a.TotalSize, a.PageSize), a.TotalSize)
	for _, rv := range a.Payload {
		printReview(w, rv)
	}
}

func printExhibitions(w io.Writer, a profile.Activity[api.Exhibition]) {
	fmt.Fprintf(w, "\n%s page %d/%d (%d total)\n", profile.TabLikedExhibition, a.CurrentPage, totalPages(a.TotalSize, a.PageSize), a.TotalSize)
	for _, e := range a.Payload {
		printExhibition(w, e)
	}
}

func totalPages(total int64, size int) int64 {
	if size <= 0 || total == 0 {
		return 1
	}
	return (total + int64(size) - 1) / int64(size)
}
