// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"slices"
	"testing"
)

func TestSourceUnmarshal_References(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		typeID   int64
		typeName string
		topicID  int64
		topic    string
	}{
		{
			name:   "plain ids",
			in:     `{"id":3,"source_type":2,"topic":7,"is_active":true}`,
			typeID: 2, topicID: 7,
		},
		{
			name:   "objects",
			in:     `{"id":3,"source_type":{"id":2,"name":"RSS"},"topic":{"id":7,"name":"LLMs"}}`,
			typeID: 2, typeName: "RSS", topicID: 7, topic: "LLMs",
		},
		{
			name:     "bare names",
			in:       `{"id":3,"source_type":"website","topic":null}`,
			typeName: "website",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Source
			if err := json.Unmarshal([]byte(tt.in), &s); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if s.Key() != 3 {
				t.Errorf("Key() = %d, want 3", s.Key())
			}
			if s.SourceTypeID != tt.typeID || s.SourceTypeName != tt.typeName {
				t.Errorf("source type = %d/%q, want %d/%q", s.SourceTypeID, s.SourceTypeName, tt.typeID, tt.typeName)
			}
			if s.TopicID != tt.topicID || s.TopicName != tt.topic {
				t.Errorf("topic = %d/%q, want %d/%q", s.TopicID, s.TopicName, tt.topicID, tt.topic)
			}
		})
	}
}

func TestSourceDraft_EditableFieldsOnly(t *testing.T) {
	s := Source{ID: 9, Name: "Arxiv", URL: "https://arxiv.org", SourceTypeID: 4, TopicID: 1, IsActive: true, TopicName: "ML"}

	data, err := json.Marshal(s.Draft())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"name":"Arxiv","url":"https://arxiv.org","description":"","source_type":4,"topic":1,"is_active":true}`
	if string(data) != want {
		t.Errorf("draft JSON = %s, want %s", data, want)
	}
}

func TestSelectedTopicIDs(t *testing.T) {
	uts := []UserTopic{
		{ID: 10, Topic: Topic{ID: 1}},
		{ID: 11, Topic: Topic{ID: 5}},
	}
	if got := SelectedTopicIDs(uts); !slices.Equal(got, []int64{1, 5}) {
		t.Errorf("SelectedTopicIDs() = %v, want [1 5]", got)
	}
	if got := SelectedTopicIDs(nil); len(got) != 0 {
		t.Errorf("SelectedTopicIDs(nil) = %v, want empty", got)
	}
}
