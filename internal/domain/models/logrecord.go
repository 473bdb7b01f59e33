// internal/domain/models/logrecord.go
package models

// Terminology: Log Identifiers
//   - ID / _id: sortable string built from the accepted ISO instant plus an optional "_<uniqueId>" suffix
//   - Timestamp: the same instant as seconds since the epoch (fractional), used for range filters

// LogRecord is a single crash/diagnostic log submitted by a client.
//
// Optional fields are pointers so an omitted field stays omitted on the way
// back out; an empty string the client actually sent is stored as such.
// Data is the opaque payload and is only returned when explicitly requested.
type LogRecord struct {
	ID           string        `bson:"_id"                    json:"_id"`
	Timestamp    float64       `bson:"timestamp"              json:"timestamp"`
	ISODate      *string       `bson:"isoDate,omitempty"      json:"isoDate,omitempty"`
	UniqueID     *string       `bson:"uniqueId,omitempty"     json:"uniqueId,omitempty"`
	UserMessage  *string       `bson:"userMessage,omitempty"  json:"userMessage,omitempty"`
	DeviceInfo   *string       `bson:"deviceInfo,omitempty"   json:"deviceInfo,omitempty"`
	AppVersion   *string       `bson:"appVersion,omitempty"   json:"appVersion,omitempty"`
	OS           *string       `bson:"OS,omitempty"           json:"OS,omitempty"`
	AcctRepoID   *string       `bson:"acctRepoId,omitempty"   json:"acctRepoId,omitempty"`
	Accounts     []Account     `bson:"accounts,omitempty"     json:"accounts,omitempty"`
	LoggedInUser *LoggedInUser `bson:"loggedInUser,omitempty" json:"loggedInUser,omitempty"`
	Data         *string       `bson:"data,omitempty"         json:"data,omitempty"`
}

// Account is one of the accounts present on the device when the log was made.
type Account struct {
	Username string `bson:"username" json:"username"`
	UserID   string `bson:"userId"   json:"userId"`
}

// LoggedInUser describes the active user and the wallets they had open.
type LoggedInUser struct {
	UserName string   `bson:"userName" json:"userName"`
	UserID   string   `bson:"userId"   json:"userId"`
	Wallets  []Wallet `bson:"wallets"  json:"wallets"`
}

// Wallet is a wallet descriptor. PluginDump is opaque plugin state and is
// stored exactly as decoded from the submitted JSON.
type Wallet struct {
	CurrencyCode string  `bson:"currencyCode"         json:"currencyCode"`
	RepoID       *string `bson:"repoId,omitempty"     json:"repoId,omitempty"`
	PluginDump   any     `bson:"pluginDump,omitempty" json:"pluginDump,omitempty"`
}

// Log field names as stored. Selectors and projections use these.
const (
	FieldID           = "_id"
	FieldTimestamp    = "timestamp"
	FieldISODate      = "isoDate"
	FieldUniqueID     = "uniqueId"
	FieldUserMessage  = "userMessage"
	FieldDeviceInfo   = "deviceInfo"
	FieldAppVersion   = "appVersion"
	FieldOS           = "OS"
	FieldAcctRepoID   = "acctRepoId"
	FieldAccounts     = "accounts"
	FieldLoggedInUser = "loggedInUser"
	FieldLoginName    = "loggedInUser.userName"
	FieldData         = "data"
)

// ListedFields are the fields returned by listing queries: every field except Data.
var ListedFields = []string{
	FieldID,
	FieldTimestamp,
	FieldISODate,
	FieldUniqueID,
	FieldUserMessage,
	FieldDeviceInfo,
	FieldAppVersion,
	FieldOS,
	FieldAcctRepoID,
	FieldAccounts,
	FieldLoggedInUser,
}
