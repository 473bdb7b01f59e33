package logapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dalemusser/stratalog/internal/app/system/apperr"
	"github.com/dalemusser/stratalog/internal/app/system/jsonutil"
	"github.com/dalemusser/stratalog/internal/domain/models"
	"go.uber.org/zap"
)

// idTimeLayout is the ISO form used as the _id prefix: UTC, millisecond
// precision, fixed width, so string order equals time order.
const idTimeLayout = "2006-01-02T15:04:05.000Z"

const (
	msgBadLogFields = "Bad Log Fields"
	msgTooLarge     = "Log Too Large"
	msgOutOfSync    = "Time Out of Sync"
	msgSaveFailed   = "Could not save log to database."
)

// ingestRequest is a LogRecord as submitted: no _id or timestamp. Required
// nested fields are pointers so "absent" can be told apart from "empty".
type ingestRequest struct {
	ISODate      *string             `json:"isoDate"`
	UniqueID     *string             `json:"uniqueId"`
	UserMessage  *string             `json:"userMessage"`
	DeviceInfo   *string             `json:"deviceInfo"`
	AppVersion   *string             `json:"appVersion"`
	OS           *string             `json:"OS"`
	AcctRepoID   *string             `json:"acctRepoId"`
	Accounts     []ingestAccount     `json:"accounts"`
	LoggedInUser *ingestLoggedInUser `json:"loggedInUser"`
	Data         *string             `json:"data"`
}

type ingestAccount struct {
	Username *string `json:"username"`
	UserID   *string `json:"userId"`
}

type ingestLoggedInUser struct {
	UserName *string         `json:"userName"`
	UserID   *string         `json:"userId"`
	Wallets  *[]ingestWallet `json:"wallets"`
}

type ingestWallet struct {
	CurrencyCode *string `json:"currencyCode"`
	RepoID       *string `json:"repoId"`
	PluginDump   any     `json:"pluginDump"`
}

// record checks required fields and converts to the stored shape. _id and
// timestamp are filled in by the caller.
func (in ingestRequest) record() (models.LogRecord, error) {
	bad := apperr.Validation(msgBadLogFields)
	if in.Data == nil {
		return models.LogRecord{}, bad
	}

	rec := models.LogRecord{
		ISODate:     in.ISODate,
		UniqueID:    in.UniqueID,
		UserMessage: in.UserMessage,
		DeviceInfo:  in.DeviceInfo,
		AppVersion:  in.AppVersion,
		OS:          in.OS,
		AcctRepoID:  in.AcctRepoID,
		Data:        in.Data,
	}

	if in.Accounts != nil {
		rec.Accounts = make([]models.Account, 0, len(in.Accounts))
		for _, a := range in.Accounts {
			if a.Username == nil || a.UserID == nil {
				return models.LogRecord{}, bad
			}
			rec.Accounts = append(rec.Accounts, models.Account{Username: *a.Username, UserID: *a.UserID})
		}
	}

	if u := in.LoggedInUser; u != nil {
		if u.UserName == nil || u.UserID == nil || u.Wallets == nil {
			return models.LogRecord{}, bad
		}
		user := &models.LoggedInUser{
			UserName: *u.UserName,
			UserID:   *u.UserID,
			Wallets:  make([]models.Wallet, 0, len(*u.Wallets)),
		}
		for _, wlt := range *u.Wallets {
			if wlt.CurrencyCode == nil {
				return models.LogRecord{}, bad
			}
			user.Wallets = append(user.Wallets, models.Wallet{
				CurrencyCode: *wlt.CurrencyCode,
				RepoID:       wlt.RepoID,
				PluginDump:   wlt.PluginDump,
			})
		}
		rec.LoggedInUser = user
	}

	return rec, nil
}

// Ingest handles PUT /v1/log/.
//
// The body is a log without _id or timestamp. A client isoDate must be
// RFC 3339 and within the skew window of server time; without one the
// server time is used. The stored log is echoed back in full.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)

	var in ingestRequest
	if err := jsonutil.Decode(r, &in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonutil.WriteError(w, r, h.logger, apperr.Validation(msgTooLarge))
			return
		}
		jsonutil.WriteError(w, r, h.logger, apperr.Validation(msgBadLogFields))
		return
	}

	rec, err := in.record()
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}

	instant, err := h.logInstant(in.ISODate)
	if err != nil {
		jsonutil.WriteError(w, r, h.logger, err)
		return
	}
	rec.ID = LogID(instant, in.UniqueID)
	rec.Timestamp = Timestamp(instant)

	if err := h.store.Insert(r.Context(), rec); err != nil {
		h.logger.Error("failed to save log",
			zap.String("_id", rec.ID),
			zap.Error(err),
		)
		jsonutil.Error(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}

	jsonutil.OK(w, rec)
}

// logInstant returns the instant a log is filed under.
func (h *Handler) logInstant(isoDate *string) (time.Time, error) {
	now := h.now()
	if isoDate == nil {
		return now, nil
	}

	t, err := time.Parse(time.RFC3339Nano, *isoDate)
	if err != nil {
		return time.Time{}, apperr.Validation(msgBadLogFields)
	}
	skew := t.UnixMilli() - now.UnixMilli()
	if skew > h.cfg.SkewWindow.Milliseconds() || skew < -h.cfg.SkewWindow.Milliseconds() {
		return time.Time{}, apperr.Validation(msgOutOfSync)
	}
	return t, nil
}

// LogID builds the _id for a log filed at t.
func LogID(t time.Time, uniqueID *string) string {
	id := t.UTC().Format(idTimeLayout)
	if uniqueID != nil {
		id += "_" + *uniqueID
	}
	return id
}

// Timestamp is t in seconds since the epoch at millisecond precision, the
// same instant LogID encodes.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}
