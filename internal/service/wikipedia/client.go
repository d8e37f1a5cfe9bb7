package wikipedia

import (
	"context"
	"net/url"
	"strings"
	"time"

	xhttp "AXII/pkg/http"
	applogger "AXII/pkg/logger"
)

type summary struct {
	Title     string `json:"title"`
	Thumbnail struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	OriginalImage struct {
		Source string `json:"source"`
	} `json:"originalimage"`
}

// ImageLookup resolves artist portraits through the Wikipedia REST summary API.
type ImageLookup struct {
	baseURL     string
	placeholder string
	http        *xhttp.Client
	l           *applogger.Logger
}

func NewImageLookup(baseURL, placeholder string, timeout time.Duration, l *applogger.Logger) *ImageLookup {
	return &ImageLookup{
		baseURL:     strings.TrimRight(baseURL, "/"),
		placeholder: placeholder,
		http:        xhttp.NewClient(xhttp.WithTimeout(timeout)),
		l:           l,
	}
}

// Lookup returns the page thumbnail, the original image, or the placeholder.
func (w *ImageLookup) Lookup(ctx context.Context, artist string) string {
	title := url.PathEscape(strings.ReplaceAll(strings.TrimSpace(artist), " ", "_"))
	var s summary
	err := w.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     w.baseURL + "/page/summary/" + title,
		Headers: map[string]string{"Accept": "application/json"},
	}, &s)
	if err != nil {
		w.l.Debug("image lookup failed", applogger.String("artist", artist), applogger.Error(err))
		return w.placeholder
	}
	switch {
	case s.Thumbnail.Source != "":
		return s.Thumbnail.Source
	case s.OriginalImage.Source != "":
		return s.OriginalImage.Source
	default:
		return w.placeholder
	}
}
