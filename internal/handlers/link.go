package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/serroba/linkkeeper/internal/apperr"
	"github.com/serroba/linkkeeper/internal/metrics"
	"github.com/serroba/linkkeeper/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler serves short link creation, resolution and listing.
type LinkHandler struct {
	links    *shortener.Service
	baseURL  string
	metrics  *metrics.Metrics
	reporter reporter
}

// NewLinkHandler creates a LinkHandler. baseURL prefixes returned short URLs.
func NewLinkHandler(links *shortener.Service, baseURL string, m *metrics.Metrics, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		links:    links,
		baseURL:  strings.TrimRight(baseURL, "/"),
		metrics:  m,
		reporter: reporter{logger: logger},
	}
}

func (h *LinkHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	accountID, ok := AccountIDFromContext(ctx)
	if !ok {
		return nil, NewFailure(http.StatusUnauthorized, notLoggedIn)
	}

	link, err := h.links.Create(ctx, accountID, req.Body.LongURL)
	if err != nil {
		return nil, h.reporter.fail(ctx, "create short url", err)
	}

	h.metrics.LinksCreated.Inc()

	shortURL := h.shortURL(link.Code)

	resp := &CreateShortURLResponse{Location: shortURL}
	resp.Body.Status = statusSuccess
	resp.Body.Message = "short url generated"
	resp.Body.Code = string(link.Code)
	resp.Body.ShortURL = shortURL
	resp.Body.LongURL = link.LongURL

	return resp, nil
}

func (h *LinkHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	link, err := h.links.Resolve(ctx, shortener.Code(req.Code))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			h.metrics.LinkResolutions.WithLabelValues("miss").Inc()

			return nil, NewFailure(http.StatusBadRequest, "wrong short-url")
		}

		return nil, h.reporter.fail(ctx, "resolve short url", err)
	}

	h.metrics.LinkResolutions.WithLabelValues("hit").Inc()

	return &RedirectResponse{
		Status:   http.StatusFound,
		Location: link.LongURL,
	}, nil
}

func (h *LinkHandler) ListLinks(ctx context.Context, _ *ListLinksRequest) (*ListLinksResponse, error) {
	accountID, ok := AccountIDFromContext(ctx)
	if !ok {
		return nil, NewFailure(http.StatusUnauthorized, notLoggedIn)
	}

	listing, err := h.links.ListForAccount(ctx, accountID)
	if err != nil {
		if apperr.Is(err, apperr.KindUserNotFound) {
			return nil, NewFailure(http.StatusUnauthorized, notLoggedIn)
		}

		return nil, h.reporter.fail(ctx, "list links", err)
	}

	results := make([]LinkView, 0, len(listing.Links))
	for _, link := range listing.Links {
		results = append(results, LinkView{
			Code:      string(link.Code),
			ShortURL:  h.shortURL(link.Code),
			LongURL:   link.LongURL,
			CreatedAt: link.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	resp := &ListLinksResponse{}
	resp.Body.Status = statusSuccess
	resp.Body.Data = AccountLinksView{
		ID:          listing.Account.ID,
		Email:       listing.Account.Email,
		IsActivated: listing.Account.IsActivated,
		Results:     results,
	}
	resp.Body.Items = len(results)

	return resp, nil
}

func (h *LinkHandler) shortURL(code shortener.Code) string {
	return h.baseURL + "/" + string(code)
}
