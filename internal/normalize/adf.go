/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package normalize

import (
    "bytes"
    "encoding/json"
    "strings"
)

type NodeKind int

const (
    NodeUnknown NodeKind = iota
    NodeText
    NodeContainer
)

// Node is a rich-text (ADF) node reduced to the only distinction flattening
// cares about: it either carries text, carries children, or neither.
type Node struct {
    Kind     NodeKind
    Text     string
    Children []Node
}

// UnmarshalJSON never fails on unexpected shapes; they become NodeUnknown.
func (n *Node) UnmarshalJSON(b []byte) error {
    *n = decodeNode(b)
    return nil
}

func decodeNode(b []byte) Node {
    b = bytes.TrimSpace(b)
    if len(b) == 0 { return Node{} }
    switch b[0] {
    case '[':
        var items []json.RawMessage
        if err := json.Unmarshal(b, &items); err != nil { return Node{} }
        return Node{Kind: NodeContainer, Children: decodeChildren(items)}
    case '{':
        var obj struct {
            Type    string            `json:"type"`
            Text    *string           `json:"text"`
            Content json.RawMessage   `json:"content"`
        }
        if err := json.Unmarshal(b, &obj); err != nil { return Node{} }
        if obj.Type == "text" {
            t := ""
            if obj.Text != nil { t = *obj.Text }
            return Node{Kind: NodeText, Text: t}
        }
        if len(obj.Content) > 0 {
            var items []json.RawMessage
            if err := json.Unmarshal(obj.Content, &items); err != nil { return Node{} }
            return Node{Kind: NodeContainer, Children: decodeChildren(items)}
        }
        if obj.Text != nil { return Node{Kind: NodeText, Text: *obj.Text} }
    }
    return Node{}
}

func decodeChildren(items []json.RawMessage) []Node {
    out := make([]Node, 0, len(items))
    for _, it := range items { out = append(out, decodeNode(it)) }
    return out
}

// Flatten walks the tree depth-first and joins text fragments with single
// spaces. Fragments are trimmed; empty ones are dropped.
func Flatten(root Node) string {
    var parts []string
    stack := []Node{root}
    for len(stack) > 0 {
        n := stack[len(stack)-1]
        stack = stack[:len(stack)-1]
        switch n.Kind {
        case NodeText:
            if t := strings.TrimSpace(n.Text); t != "" { parts = append(parts, t) }
        case NodeContainer:
            for i := len(n.Children) - 1; i >= 0; i-- { stack = append(stack, n.Children[i]) }
        }
    }
    return strings.Join(parts, " ")
}

// FlattenJSON flattens a raw description value: strings pass through, trees
// are flattened, null and anything else yield "".
func FlattenJSON(raw json.RawMessage) string {
    raw = bytes.TrimSpace(raw)
    if len(raw) == 0 || bytes.Equal(raw, []byte("null")) { return "" }
    if raw[0] == '"' {
        var s string
        if err := json.Unmarshal(raw, &s); err == nil { return s }
        return ""
    }
    return Flatten(decodeNode(raw))
}
