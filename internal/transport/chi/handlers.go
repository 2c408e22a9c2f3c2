package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bylawbot/internal/domain"
	"github.com/kailas-cloud/bylawbot/internal/domain/answer"
	"github.com/kailas-cloud/bylawbot/internal/domain/bylaw"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/filter"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/query"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/bylawbot/internal/logger"
	"github.com/kailas-cloud/bylawbot/internal/usecase/citation"
	healthuc "github.com/kailas-cloud/bylawbot/internal/usecase/health"
	"github.com/kailas-cloud/bylawbot/internal/version"
)

const (
	maxBodyBytes      = 64 << 10
	maxAnnotateLength = 20000
)

type searchRequest struct {
	Query        string          `json:"query"`
	Filters      *filter.Filters `json:"filters,omitempty"`
	Limit        *int            `json:"limit,omitempty"`
	MinScore     *float64        `json:"minScore,omitempty"`
	UseOptimized bool            `json:"useOptimized,omitempty"`
}

type searchResponse struct {
	Success   bool          `json:"success"`
	Query     string        `json:"query"`
	Count     int           `json:"count"`
	FromCache bool          `json:"fromCache"`
	Results   []result.Item `json:"results"`
}

type annotateRequest struct {
	Text     string `json:"text"`
	Markdown bool   `json:"markdown,omitempty"`
}

type annotateResponse struct {
	Success   bool               `json:"success"`
	Citations int                `json:"citations"`
	Segments  []citation.Segment `json:"segments"`
	Markdown  string             `json:"markdown,omitempty"`
}

type answerResponse struct {
	Success bool          `json:"success"`
	Answer  answer.Answer `json:"answer"`
}

type topicsResponse struct {
	Success bool           `json:"success"`
	Topics  []answer.Topic `json:"topics"`
}

type bylawItem struct {
	Number string `json:"number"`
	Title  string `json:"title"`
	Topic  string `json:"topic"`
}

type bylawsResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Bylaws  []bylawItem `json:"bylaws"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version string            `json:"version"`
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}

	p := query.Params{
		Text:      req.Query,
		MinScore:  req.MinScore,
		Optimized: req.UseOptimized,
	}
	if req.Filters != nil {
		p.Filters = *req.Filters
	}
	if req.Limit != nil {
		if *req.Limit == 0 {
			s.handleDomainError(w, r, domain.NewValidationError("limit",
				fmt.Sprintf("must be between 1 and %d", query.MaxLimit)))
			return
		}
		p.Limit = *req.Limit
	}

	q, err := query.New(p)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, searchResponse{
		Success:   true,
		Query:     resp.Query,
		Count:     len(resp.Results),
		FromCache: resp.FromCache,
		Results:   resp.Results,
	})
}

// Annotate handles POST /api/citations/annotate.
func (s *Server) Annotate(w http.ResponseWriter, r *http.Request) {
	var req annotateRequest
	if !s.decode(w, r, &req) {
		return
	}
	if utf8.RuneCountInString(req.Text) > maxAnnotateLength {
		s.handleDomainError(w, r, domain.NewValidationError("text",
			fmt.Sprintf("must be at most %d characters", maxAnnotateLength)))
		return
	}

	segs := s.annotator.Segments(req.Text)
	n := 0
	for _, seg := range segs {
		if seg.Kind == citation.KindCitation {
			n++
		}
	}
	resp := annotateResponse{Success: true, Citations: n, Segments: segs}
	if req.Markdown {
		resp.Markdown = renderMarkdown(segs)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAnswer handles GET /api/answers?topic=.
func (s *Server) GetAnswer(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		s.handleDomainError(w, r, domain.NewValidationError("topic", "is required"))
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{Success: true, Answer: answer.For(topic)})
}

// ListAnswerTopics handles GET /api/answers/topics.
func (s *Server) ListAnswerTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, topicsResponse{Success: true, Topics: answer.Topics()})
}

// ListBylaws handles GET /api/bylaws. Only verified bylaws are listed.
func (s *Server) ListBylaws(w http.ResponseWriter, _ *http.Request) {
	verified := bylaw.Verified()
	items := make([]bylawItem, len(verified))
	for i, b := range verified {
		items[i] = bylawItem{Number: b.Number, Title: b.Title, Topic: b.Topic}
	}
	writeJSON(w, http.StatusOK, bylawsResponse{Success: true, Count: len(items), Bylaws: items})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

// decode reads a JSON body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		msg := "invalid request body"
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			msg = "request body too large"
		}
		s.requestLogger(r).Debug("bad request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, codeBadRequest, msg, nil)
		return false
	}
	return true
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return logpkg.FromContextOr(r.Context(), s.logger)
}

// renderMarkdown inlines citation labels into the already scanned segments.
func renderMarkdown(segs []citation.Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		if seg.Kind == citation.KindCitation && seg.Citation != nil {
			b.WriteString(seg.Citation.Label())
			continue
		}
		b.WriteString(seg.Text)
	}
	return b.String()
}

// setEmbeddingHeaders reports tokens spent on the query embedding. Cache hits
// spend none and get no header.
func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}
