package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"artzip/internal/api"
	"artzip/internal/reviewform"
)

var (
	reviewExhibition int64
	reviewDate       string
	reviewTitle      string
	reviewContent    string
	reviewPrivate    bool
	reviewPublic     bool
	reviewPhotos     []string
	reviewDeletes    []int64
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Write, edit and manage reviews",
}

var reviewCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Post a new review",
	Args:  cobra.NoArgs,
	RunE:  runReviewCreate,
}

var reviewEditCmd = &cobra.Command{
	Use:   "edit <review-id>",
	Short: "Edit one of your reviews",
	Long: `Edit fetches the review, applies the changed fields, removes the photos
named by --delete-photo and uploads any new --photo files.`,
	Args: cobra.ExactArgs(1),
	RunE: runReviewEdit,
}

var reviewShowCmd = &cobra.Command{
	Use:   "show <review-id>",
	Short: "Print a review",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewShow,
}

var reviewDeleteCmd = &cobra.Command{
	Use:   "delete <review-id>",
	Short: "Delete one of your reviews",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewDelete,
}

var reviewLikeCmd = &cobra.Command{
	Use:   "like <review-id>",
	Short: "Toggle your like on a review",
	Args:  cobra.ExactArgs(1),
	RunE:  runReviewLike,
}

func init() {
	for _, c := range []*cobra.Command{reviewCreateCmd, reviewEditCmd} {
		c.Flags().Int64Var(&reviewExhibition, "exhibition", 0, "Exhibition id")
		c.Flags().StringVar(&reviewDate, "date", "", "Visit date (YYYY-MM-DD)")
		c.Flags().StringVar(&reviewTitle, "title", "", "Review title")
		c.Flags().StringVar(&reviewContent, "content", "", "Review body")
		c.Flags().StringArrayVar(&reviewPhotos, "photo", nil, "Photo file to attach (repeatable)")
	}
	reviewCreateCmd.Flags().BoolVar(&reviewPrivate, "private", false, "Hide the review from other users")
	reviewEditCmd.Flags().BoolVar(&reviewPublic, "public", true, "Whether the review is visible to other users")
	reviewEditCmd.Flags().Int64SliceVar(&reviewDeletes, "delete-photo", nil, "Photo id to remove (repeatable)")

	reviewCmd.AddCommand(reviewCreateCmd, reviewEditCmd, reviewShowCmd, reviewDeleteCmd, reviewLikeCmd)
}

// printNotifier reports submission results on the command's streams.
type printNotifier struct {
	out io.Writer
	err io.Writer
}

func (n printNotifier) Success(msg string) { fmt.Fprintln(n.out, msg) }
func (n printNotifier) Error(msg string)   { fmt.Fprintln(n.err, "error:", msg) }

// logNavigator has no screen to change, it only records where the form went.
type logNavigator struct{ log *zap.Logger }

func (n logNavigator) Replace(path string) {
	n.log.Debug("navigate", zap.String("path", path))
}

func runReviewCreate(cmd *cobra.Command, args []string) error {
	if err := session.RequireLogin(); err != nil {
		return err
	}
	form := reviewform.New(reviewform.Config{
		Mode:      reviewform.ModeCreate,
		API:       apiClient(),
		Notifier:  printNotifier{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()},
		Navigator: logNavigator{log: logger},
		Log:       logger,
	})
	form.SetExhibition(api.ExhibitionSummary{ExhibitionID: reviewExhibition})
	form.SetDate(reviewDate)
	form.SetTitle(reviewTitle)
	form.SetContent(reviewContent)
	form.SetPublic(!reviewPrivate)

	return submitForm(cmd, form)
}

func runReviewEdit(cmd *cobra.Command, args []string) error {
	if err := session.RequireLogin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	c := apiClient()
	rv, err := c.GetReview(ctx, id)
	if err != nil {
		return err
	}

	form := reviewform.New(reviewform.Config{
		Mode:      reviewform.ModeUpdate,
		Prev:      reviewform.FromReview(rv),
		API:       c,
		Notifier:  printNotifier{out: cmd.OutOrStdout(), err: cmd.ErrOrStderr()},
		Navigator: logNavigator{log: logger},
		Log:       logger,
	})

	flags := cmd.Flags()
	if flags.Changed("exhibition") {
		form.SetExhibition(api.ExhibitionSummary{ExhibitionID: reviewExhibition})
	}
	if flags.Changed("date") {
		form.SetDate(reviewDate)
	}
	if flags.Changed("title") {
		form.SetTitle(reviewTitle)
	}
	if flags.Changed("content") {
		form.SetContent(reviewContent)
	}
	if flags.Changed("public") {
		form.SetPublic(reviewPublic)
	}
	for _, photoID := range reviewDeletes {
		if err := form.SelectPhoto(photoID); err != nil {
			return fmt.Errorf("photo %d: %w", photoID, err)
		}
		if err := form.ConfirmPhotoDelete(); err != nil {
			return err
		}
	}

	return submitForm(cmd, form)
}

// submitForm attaches the --photo files and submits once.
func submitForm(cmd *cobra.Command, form *reviewform.Form) error {
	var opened []*os.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, path := range reviewPhotos {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		opened = append(opened, f)
		if err := form.AttachFile(filepath.Base(path), f); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	err := form.Submit(ctx)

	var verr *reviewform.ValidationError
	if errors.As(err, &verr) {
		keys := make([]string, 0, len(verr.Fields))
		for k := range verr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", k, verr.Fields[k])
		}
	}
	return err
}

func runReviewShow(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	rv, err := apiClient().GetReview(ctx, id)
	if err != nil {
		return err
	}
	printReview(cmd.OutOrStdout(), *rv)
	fmt.Fprintln(cmd.OutOrStdout(), rv.Content)
	for _, p := range rv.Photos {
		fmt.Fprintf(cmd.OutOrStdout(), "  photo %d  %s\n", p.PhotoID, p.Path)
	}
	return nil
}

func runReviewDelete(cmd *cobra.Command, args []string) error {
	if err := session.RequireLogin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := apiClient().DeleteReview(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Review %d deleted\n", id)
	return nil
}

func runReviewLike(cmd *cobra.Command, args []string) error {
	if err := session.RequireLogin(); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	state, err := apiClient().ToggleReviewLike(ctx, id)
	if err != nil {
		return err
	}
	verb := "Unliked"
	if state.IsLiked {
		verb = "Liked"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s review %d (%d likes)\n", verb, id, state.LikeCount)
	return nil
}

func printReview(w io.Writer, rv api.Review) {
	vis := ""
	if !rv.IsPublic {
		vis = " [private]"
	}
	fmt.Fprintf(w, "#%d %q by %s on %s at %s, %d likes%s\n",
		rv.ReviewID, rv.Title, rv.User.Nickname, rv.Date, rv.Exhibition.Name, rv.LikeCount, vis)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
