package domain

import (
    "bytes"
    "encoding/json"
)

// RawIssue is one element of the search endpoint's "issues" array. Fields stays
// undecoded: its layout differs between deployments.
type RawIssue struct {
    ID        string          `json:"id"`
    Key       string          `json:"key"`
    Self      string          `json:"self"`
    Fields    json.RawMessage `json:"fields"`
    Changelog *RawHistories   `json:"changelog,omitempty"`

    // Raw holds the complete object bytes.
    Raw json.RawMessage `json:"-"`
}

func (r *RawIssue) UnmarshalJSON(b []byte) error {
    type plain RawIssue
    var p plain
    if err := json.Unmarshal(b, &p); err != nil { return err }
    *r = RawIssue(p)
    r.Raw = append(json.RawMessage(nil), bytes.TrimSpace(b)...)
    return nil
}

// RawHistories is the "changelog" object embedded by expand=changelog.
type RawHistories struct {
    StartAt    int           `json:"startAt"`
    MaxResults int           `json:"maxResults"`
    Total      int           `json:"total"`
    Histories  []ChangeEvent `json:"histories"`
}

// ChangeEvent is one change group: who changed what, when.
type ChangeEvent struct {
    ID      string       `json:"id"`
    Author  *Person      `json:"author"`
    Created string       `json:"created"`
    Items   []ChangeItem `json:"items"`
}

type ChangeItem struct {
    Field      string  `json:"field"`
    FieldType  string  `json:"fieldtype"`
    FieldID    string  `json:"fieldId,omitempty"`
    From       *string `json:"from"`
    To         *string `json:"to"`
    FromString *string `json:"fromString"`
    ToString   *string `json:"toString"`
}

type Person struct {
    DisplayName string `json:"displayName"`
    Name        string `json:"name,omitempty"`
    AccountID   string `json:"accountId,omitempty"`
}

// Label returns the display name, falling back to the Server/DC user name.
func (p *Person) Label() string {
    if p == nil { return "" }
    if p.DisplayName != "" { return p.DisplayName }
    return p.Name
}
