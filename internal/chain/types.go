package chain

import (
	"encoding/json"
)

// ObjectResponse is the envelope of sui_getObject and owned-object pages
type ObjectResponse struct {
	Data  *ObjectData  `json:"data,omitempty"`
	Error *ObjectError `json:"error,omitempty"`
}

// ObjectData is an object as rendered by the node
type ObjectData struct {
	ObjectID string       `json:"objectId"`
	Version  string       `json:"version"`
	Digest   string       `json:"digest"`
	Type     string       `json:"type,omitempty"`
	Owner    Owner        `json:"owner,omitempty"`
	Content  *MoveContent `json:"content,omitempty"`
}

// ObjectError explains why an object could not be returned
type ObjectError struct {
	Code     string `json:"code"`
	ObjectID string `json:"object_id,omitempty"`
}

// MoveContent holds the decoded field bag of a Move object
type MoveContent struct {
	DataType          string         `json:"dataType"`
	Type              string         `json:"type"`
	HasPublicTransfer bool           `json:"hasPublicTransfer"`
	Fields            map[string]any `json:"fields"`
}

// Owner is one of AddressOwner, ObjectOwner, Shared or "Immutable"
type Owner struct {
	AddressOwner string `json:"AddressOwner,omitempty"`
	ObjectOwner  string `json:"ObjectOwner,omitempty"`
	Shared       *struct {
		InitialSharedVersion uint64 `json:"initial_shared_version"`
	} `json:"Shared,omitempty"`
	Immutable bool `json:"-"`
}

// UnmarshalJSON accepts both the object form and the bare "Immutable" string
func (o *Owner) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		o.Immutable = s == "Immutable"
		return nil
	}
	type plain Owner
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*o = Owner(p)
	return nil
}

// Kind names the access mode of the object
func (o Owner) Kind() string {
	switch {
	case o.Immutable:
		return "immutable"
	case o.Shared != nil:
		return "shared"
	case o.ObjectOwner != "":
		return "object"
	case o.AddressOwner != "":
		return "address"
	default:
		return ""
	}
}

// ObjectsPage is one page of suix_getOwnedObjects
type ObjectsPage struct {
	Data        []ObjectResponse `json:"data"`
	NextCursor  *string          `json:"nextCursor"`
	HasNextPage bool             `json:"hasNextPage"`
}

// CoinData is a coin object from suix_getCoins
type CoinData struct {
	CoinType            string `json:"coinType"`
	CoinObjectID        string `json:"coinObjectId"`
	Version             string `json:"version"`
	Digest              string `json:"digest"`
	Balance             string `json:"balance"`
	PreviousTransaction string `json:"previousTransaction"`
}

// CoinsPage is one page of suix_getCoins
type CoinsPage struct {
	Data        []CoinData `json:"data"`
	NextCursor  *string    `json:"nextCursor"`
	HasNextPage bool       `json:"hasNextPage"`
}

// BalanceResponse is the result of suix_getBalance
type BalanceResponse struct {
	CoinType        string `json:"coinType"`
	CoinObjectCount int    `json:"coinObjectCount"`
	TotalBalance    string `json:"totalBalance"`
}

// DynamicFieldName identifies a dynamic field on its parent
type DynamicFieldName struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// DynamicFieldInfo describes one dynamic field
type DynamicFieldInfo struct {
	Name       DynamicFieldName `json:"name"`
	Type       string           `json:"type"`
	ObjectType string           `json:"objectType"`
	ObjectID   string           `json:"objectId"`
	Digest     string           `json:"digest"`
}

// DynamicFieldsPage is one page of suix_getDynamicFields
type DynamicFieldsPage struct {
	Data        []DynamicFieldInfo `json:"data"`
	NextCursor  *string            `json:"nextCursor"`
	HasNextPage bool               `json:"hasNextPage"`
}

// ObjectRef points at a specific object version
type ObjectRef struct {
	ObjectID string `json:"objectId"`
	Version  any    `json:"version"`
	Digest   string `json:"digest"`
}

// TransactionBytes is returned by the unsafe_* transaction builders
type TransactionBytes struct {
	TxBytes      string          `json:"txBytes"`
	Gas          []ObjectRef     `json:"gas"`
	InputObjects json.RawMessage `json:"inputObjects"`
}

// ExecutionStatus is the effects status of a transaction
type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Effects is the subset of transaction effects mintforge reads
type Effects struct {
	Status            ExecutionStatus `json:"status"`
	TransactionDigest string          `json:"transactionDigest"`
}

// ObjectChange is one entry of a transaction's object changes
type ObjectChange struct {
	Type       string `json:"type"`
	Sender     string `json:"sender,omitempty"`
	Owner      Owner  `json:"owner,omitempty"`
	ObjectType string `json:"objectType,omitempty"`
	ObjectID   string `json:"objectId,omitempty"`
	Version    string `json:"version,omitempty"`
	Digest     string `json:"digest,omitempty"`
}

// EventID locates an event by transaction and sequence
type EventID struct {
	TxDigest string `json:"txDigest"`
	EventSeq string `json:"eventSeq"`
}

// Event is a Move event emitted by a transaction
type Event struct {
	ID                EventID        `json:"id"`
	PackageID         string         `json:"packageId"`
	TransactionModule string         `json:"transactionModule"`
	Sender            string         `json:"sender"`
	Type              string         `json:"type"`
	ParsedJSON        map[string]any `json:"parsedJson"`
	TimestampMs       string         `json:"timestampMs,omitempty"`
}

// EventsPage is one page of suix_queryEvents
type EventsPage struct {
	Data        []Event  `json:"data"`
	NextCursor  *EventID `json:"nextCursor"`
	HasNextPage bool     `json:"hasNextPage"`
}

// TransactionResponse is the result of executing or fetching a transaction
type TransactionResponse struct {
	Digest        string         `json:"digest"`
	Effects       *Effects       `json:"effects,omitempty"`
	ObjectChanges []ObjectChange `json:"objectChanges,omitempty"`
	Events        []Event        `json:"events,omitempty"`
	Errors        []string       `json:"errors,omitempty"`
	TimestampMs   string         `json:"timestampMs,omitempty"`
	Checkpoint    string         `json:"checkpoint,omitempty"`
}

// Succeeded reports whether the effects status is success
func (t *TransactionResponse) Succeeded() bool {
	return t.Effects != nil && t.Effects.Status.Status == "success"
}

// CreatedObject returns the id of the first created object of objectType
func (t *TransactionResponse) CreatedObject(objectType string) (string, bool) {
	for _, c := range t.ObjectChanges {
		if c.Type == "created" && c.ObjectType == objectType {
			return c.ObjectID, true
		}
	}
	return "", false
}

// MoveCallRequest describes one entry-function call
type MoveCallRequest struct {
	Signer        string
	PackageID     string
	Module        string
	Function      string
	TypeArguments []string
	Arguments     []any
	Gas           string
	GasBudget     uint64
}
