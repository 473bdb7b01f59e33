package logapi

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/dalemusser/stratalog/internal/app/system/apperr"
	"github.com/dalemusser/stratalog/internal/app/system/auth"
	"github.com/dalemusser/stratalog/internal/app/system/inputval"
	"github.com/dalemusser/stratalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalog/internal/app/system/logquery"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

const msgMissingGetFields = "Missing Request fields."

// Any string ingest can produce is a valid _id, so presence is the only rule.
type getLogInput struct {
	ID string `json:"_id" validate:"required" label:"_id"`
}

type pageInput struct {
	Limit    string `json:"limit" validate:"digits,max=9" label:"limit"`
	Bookmark string `json:"bookmark" validate:"bookmark,max=4096" label:"bookmark"`
}

// GetLog handles GET /v1/getLog/?_id=&withData=.
//
// The data payload is returned only when withData is exactly "true".
func (h *Handler) GetLog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := getLogInput{ID: q.Get("_id")}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.WriteError(w, r, h.logger, apperr.Validation(msgMissingGetFields))
		return
	}
	withData := q.Get("withData") == "true"

	rec, err := h.store.Get(r.Context(), in.ID, withData)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	if !withData {
		rec.Data = nil
	}
	h.logger.Debug("getLog",
		zap.String("login_user", loginUser(r)),
		zap.String("_id", in.ID),
		zap.Bool("with_data", withData),
	)
	jsonutil.OK(w, rec)
}

// FindLogs handles GET /v1/findLogs/?start=&end=&deviceOS=&deviceInfo=&userMessage=&userName=.
//
// Without limit or bookmark the whole range is returned by one bounded
// find. With either, one page (newest first) is returned and the token for
// the next page is sent in the X-Bookmark header; an unchanged token means
// there are no more pages.
func (h *Handler) FindLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rng, err := logquery.ParseRange(logquery.RangeRequest{
		Start:       query.Get(r, "start"),
		End:         query.Get(r, "end"),
		DeviceOS:    optional(q, "deviceOS"),
		DeviceInfo:  optional(q, "deviceInfo"),
		UserMessage: optional(q, "userMessage"),
		UserName:    optional(q, "userName"),
	})
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}

	page := pageInput{Limit: q.Get("limit"), Bookmark: q.Get("bookmark")}
	if page.Limit == "" && page.Bookmark == "" {
		logs, err := h.store.Find(r.Context(), logquery.RangeQuery(rng, h.cfg.FindLimit))
		if err != nil {
			jsonutil.WriteError(w, r, h.logger, err)
			return
		}
		h.logger.Debug("findLogs",
			zap.String("login_user", loginUser(r)),
			zap.Int("results", len(logs)),
		)
		jsonutil.OK(w, logs)
		return
	}

	if res := inputval.Validate(page); res.HasErrors() {
		jsonutil.WriteError(w, r, h.logger, apperr.Validation(res.First()))
		return
	}
	size, err := h.pageSize(page.Limit)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}

	res, err := h.store.FindPage(r.Context(), logquery.RangePage(rng, size), page.Bookmark)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	h.logger.Debug("findLogs page",
		zap.String("login_user", loginUser(r)),
		zap.Int("results", len(res.Docs)),
		zap.Int64("page_size", size),
	)
	w.Header().Set(HeaderBookmark, res.Bookmark)
	jsonutil.OK(w, res.Docs)
}

// pageSize parses limit, defaulting to and capping at PageMax.
func (h *Handler) pageSize(limit string) (int64, error) {
	if limit == "" {
		return h.cfg.PageMax, nil
	}
	n, err := strconv.ParseInt(limit, 10, 64)
	if err != nil || n < 1 {
		return 0, apperr.Validation("limit must be at least 1.")
	}
	return min(n, h.cfg.PageMax), nil
}

// optional returns a pointer to the value of key, or nil when the parameter
// is absent. A present but empty parameter still filters.
func optional(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}

func loginUser(r *http.Request) string {
	id, _ := auth.CurrentIdentity(r)
	return id.LoginUser
}
