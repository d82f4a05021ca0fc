// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Topic is a content topic users can subscribe to.
type Topic struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// Key implements the list item key.
func (t Topic) Key() int64 { return t.ID }

// UserTopic joins the current user to a selected topic.
type UserTopic struct {
	ID    int64 `json:"id"`
	Topic Topic `json:"topic"`
}

// Key implements the list item key.
func (ut UserTopic) Key() int64 { return ut.ID }

// SelectedTopicIDs derives the selected topic ids from the user's topic rows.
// Selection is never stored on its own.
func SelectedTopicIDs(userTopics []UserTopic) []int64 {
	ids := make([]int64, 0, len(userTopics))
	for _, ut := range userTopics {
		ids = append(ids, ut.Topic.ID)
	}
	return ids
}
