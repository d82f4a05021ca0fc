// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"strconv"
)

// Source is a content source feeding newsletter generation.
type Source struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	Description  string `json:"description"`
	SourceTypeID int64  `json:"source_type"`
	TopicID      int64  `json:"topic"`
	IsActive     bool   `json:"is_active"`

	// Denormalized names; only list endpoints fill these in.
	SourceTypeName string `json:"-"`
	TopicName      string `json:"-"`
}

// Key implements the list item key.
func (s Source) Key() int64 { return s.ID }

// UnmarshalJSON accepts source_type and topic as ids, as {id, name} objects,
// or as bare names.
func (s *Source) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          int64           `json:"id"`
		Name        string          `json:"name"`
		URL         string          `json:"url"`
		Description string          `json:"description"`
		SourceType  json.RawMessage `json:"source_type"`
		Topic       json.RawMessage `json:"topic"`
		IsActive    bool            `json:"is_active"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = Source{
		ID:          raw.ID,
		Name:        raw.Name,
		URL:         raw.URL,
		Description: raw.Description,
		IsActive:    raw.IsActive,
	}
	s.SourceTypeID, s.SourceTypeName = decodeRef(raw.SourceType)
	s.TopicID, s.TopicName = decodeRef(raw.Topic)
	return nil
}

// decodeRef decodes a foreign reference that may be an id, an object or a name.
func decodeRef(raw json.RawMessage) (int64, string) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, ""
	}

	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, ""
	}

	var obj struct {
		ID   json.RawMessage `json:"id"`
		PK   json.RawMessage `json:"pk"`
		Name string          `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		ref := obj.ID
		if len(ref) == 0 {
			ref = obj.PK
		}
		var n int64
		_ = json.Unmarshal(ref, &n)
		return n, obj.Name
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		if n, err := strconv.ParseInt(name, 10, 64); err == nil {
			return n, ""
		}
		return 0, name
	}
	return 0, ""
}

// SourceDraft is the payload for creating or updating a source.
type SourceDraft struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Description  string `json:"description"`
	SourceTypeID int64  `json:"source_type"`
	TopicID      int64  `json:"topic"`
	IsActive     bool   `json:"is_active"`
}

// Draft returns an editable draft of the source.
func (s Source) Draft() SourceDraft {
	return SourceDraft{
		Name:         s.Name,
		URL:          s.URL,
		Description:  s.Description,
		SourceTypeID: s.SourceTypeID,
		TopicID:      s.TopicID,
		IsActive:     s.IsActive,
	}
}
