package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mentora-ai/mentora/internal/course"
	"github.com/mentora-ai/mentora/internal/errors"
)

var (
	generateStream bool

	courseURL        string
	courseFile       string
	courseText       string
	courseTitle      string
	courseDifficulty string
	courseAudience   string
)

func init() {
	generateCmd.Flags().BoolVarP(&generateStream, "stream", "s", false, "Print tokens as they are generated")
	rootCmd.AddCommand(generateCmd)

	courseCmd.Flags().StringVar(&courseURL, "url", "", "Web page to build the course from")
	courseCmd.Flags().StringVarP(&courseFile, "file", "f", "", "Document (pdf, txt, md, html) to build the course from")
	courseCmd.Flags().StringVar(&courseText, "text", "", "Source text to build the course from")
	courseCmd.Flags().StringVarP(&courseTitle, "title", "t", "", "Course title")
	courseCmd.Flags().StringVar(&courseDifficulty, "difficulty", "beginner", "Difficulty level")
	courseCmd.Flags().StringVar(&courseAudience, "audience", "", "Target audience")
	courseCmd.MarkFlagsMutuallyExclusive("url", "file", "text")
	rootCmd.AddCommand(courseCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate PROMPT",
	Short: "Generate text with the loaded on-device model",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.svc.EnsureModel(cmd.Context()); err != nil && !a.models.Simulating() {
		return err
	}

	text := strings.Join(args, " ")
	out := cmd.OutOrStdout()
	if !generateStream {
		fmt.Fprintln(out, a.models.GenerateText(cmd.Context(), text))
		return nil
	}

	err = a.models.GenerateStream(cmd.Context(), text, func(token string) error {
		_, werr := fmt.Fprint(out, token)
		return werr
	})
	fmt.Fprintln(out)
	return err
}

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Generate a course from a web page, a document or text",
	Long: `Generate a structured course. The on-device model is tried first, then the
backend and finally simulated content when enabled. The course is printed as
JSON.`,
	Args: cobra.NoArgs,
	RunE: runCourse,
}

func runCourse(cmd *cobra.Command, args []string) error {
	if courseURL == "" && courseFile == "" && courseText == "" {
		return errors.NewBuilder(errors.CodeInvalidInput, "no course source given").
			User().
			WithSuggestion("Pass one of --url, --file or --text").
			Build()
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.svc.GenerateCourse(cmd.Context(), course.CourseInput{
		Title:         courseTitle,
		Difficulty:    courseDifficulty,
		Audience:      courseAudience,
		URL:           courseURL,
		FilePath:      courseFile,
		ExtractedText: courseText,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), c)
}
