package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	stlerr "github.com/kkkunny/stl/error"
	"github.com/urfave/cli/v2"

	"github.com/kkkunny/PDFTutor/tutor"
	"github.com/kkkunny/PDFTutor/tutor/dto"
	"github.com/kkkunny/PDFTutor/viewer"
)

var (
	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func main() {
	app := &cli.App{
		Name:      "pdftutor",
		Usage:     "Ask the PDF tutor about a document",
		ArgsUsage: "<question>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "endpoint",
				Value:   "http://127.0.0.1:8080/api/chat",
				Usage:   "chat endpoint url",
				EnvVars: []string{"PDFTUTOR_ENDPOINT"},
			},
			&cli.StringFlag{
				Name:  "pdf-text",
				Usage: "JSON file with the extracted pages: [{\"pageNumber\":1,\"text\":\"...\"}]",
			},
			&cli.IntFlag{
				Name:  "page",
				Value: 1,
				Usage: "page the student is looking at",
			},
			&cli.IntFlag{
				Name:  "pages",
				Usage: "number of pages in the document, 0 if unknown",
			},
			&cli.StringFlag{
				Name:  "file-id",
				Usage: "id of the uploaded document",
			},
			&cli.StringSliceFlag{
				Name:  "cookie",
				Usage: "session cookie as name=value, repeatable",
			},
		},
		Action: ask,
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload a PDF and print its storage path",
				ArgsUsage: "<file.pdf>",
				Flags:     []cli.Flag{domainFlag},
				Action:    upload,
			},
			{
				Name:   "signed-url",
				Usage:  "Print a time-limited url for an uploaded PDF",
				Flags:  []cli.Flag{domainFlag},
				Action: signedURL,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

var domainFlag = &cli.StringFlag{
	Name:     "domain",
	Usage:    "web app origin, e.g. https://tutor.example.com",
	Required: true,
	EnvVars:  []string{"PDFTUTOR_DOMAIN"},
}

func ask(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		_ = cli.ShowAppHelp(c)
		return stlerr.Errorf("a question is required")
	}

	pages, err := loadPages(c.String("pdf-text"))
	if err != nil {
		return err
	}
	session := viewer.NewSession(c.Int("pages"))
	if page := c.Int("page"); page > 0 {
		if err = session.JumpToPage(page); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	conv := tutor.NewConversation(newClient(c, c.String("endpoint")), &tutor.Document{FileID: c.String("file-id"), Pages: pages})
	printer := &textPrinter{}
	_, err = conv.Ask(ctx, question, session.CurrentPage(), &printingViewer{Session: session}, printer.print)
	fmt.Println()
	if err != nil {
		fmt.Println(errorStyle.Render(tutor.FallbackReply))
		return err
	}

	fmt.Println(statusStyle.Render(fmt.Sprintf("page %d, %d highlight(s)", session.CurrentPage(), len(session.Highlights(0)))))
	return nil
}

func upload(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return stlerr.Errorf("a pdf file is required")
	}
	data, err := stlerr.ErrorWith(os.ReadFile(path))
	if err != nil {
		return err
	}
	storagePath, err := newClient(c, c.String("domain")).UploadPDF(c.Context, c.String("domain"), filepath.Base(path), data)
	if err != nil {
		return err
	}
	fmt.Println(storagePath)
	return nil
}

func signedURL(c *cli.Context) error {
	url, err := newClient(c, c.String("domain")).FileSignedURL(c.Context, c.String("domain"), c.String("file-id"))
	if err != nil {
		return err
	}
	fmt.Println(url)
	return nil
}

// newClient --cookie会被记住，未指定时使用上次保存的
func newClient(c *cli.Context, site string) *tutor.Client {
	endpoint := c.String("endpoint")
	cookies := parseCookies(c.StringSlice("cookie"))

	path, err := defaultCookieStorePath()
	if err != nil {
		return tutor.NewClient(endpoint, tutor.WithCookies(cookies...))
	}
	store, err := loadCookieStore(path)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, statusStyle.Render("ignore cookie cache: "+err.Error()))
		return tutor.NewClient(endpoint, tutor.WithCookies(cookies...))
	}

	if len(cookies) == 0 {
		cookies = store.Get(cookieSite(site))
	} else if err = store.Set(cookieSite(site), cookies); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, statusStyle.Render("save cookies: "+err.Error()))
	}
	return tutor.NewClient(endpoint, tutor.WithCookies(cookies...))
}

func parseCookies(raw []string) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(raw))
	for _, s := range raw {
		name, value, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return cookies
}

func loadPages(path string) ([]*dto.PageContent, error) {
	if path == "" {
		return nil, nil
	}
	data, err := stlerr.ErrorWith(os.ReadFile(path))
	if err != nil {
		return nil, err
	}
	var pages []*dto.PageContent
	if err = stlerr.ErrorWrap(json.Unmarshal(data, &pages)); err != nil {
		return nil, err
	}
	return pages, nil
}

// textPrinter 快照只会增长，只打印新增部分
type textPrinter struct {
	printed int
}

func (p *textPrinter) print(msg *dto.Message) {
	text := msg.Text()
	if len(text) <= p.printed {
		return
	}
	fmt.Print(answerStyle.Render(text[p.printed:]))
	p.printed = len(text)
}

type printingViewer struct {
	*viewer.Session
}

func (v *printingViewer) JumpToPage(page int) error {
	fmt.Print("\n" + actionStyle.Render(fmt.Sprintf("→ page %d", page)) + "\n")
	return v.Session.JumpToPage(page)
}

func (v *printingViewer) HighlightRegion(h dto.Highlight) error {
	fmt.Print("\n" + actionStyle.Render(fmt.Sprintf("▌ highlight %d region(s) on page %d", len(h.Rects), h.Page)) + "\n")
	return v.Session.HighlightRegion(h)
}

var _ tutor.Viewer = (*printingViewer)(nil)
