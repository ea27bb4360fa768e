// Package nihongo defines the core domain types shared by the game engines,
// the provider clients and the HTTP layer.
// It has no dependencies outside the standard library.
package nihongo

import (
	"strings"
	"time"
)

type VocabularyItem struct {
	ID         string
	Expression string
	Reading    string
	Meaning    string
	Tags       []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// JapaneseText is what a card shows for the Japanese side of an item:
// "reading (expression)" when they differ, the reading otherwise.
func (v VocabularyItem) JapaneseText() string {
	if v.Expression == "" || v.Expression == v.Reading {
		return v.Reading
	}
	return v.Reading + " (" + v.Expression + ")"
}

type KanaPair struct {
	Romaji string `json:"romaji" yaml:"romaji"`
	Kana   string `json:"kana" yaml:"kana"`
}

type KanaType string

const (
	KanaHiragana KanaType = "hiragana"
	KanaKatakana KanaType = "katakana"
	KanaMixed    KanaType = "mixed"
)

func (k KanaType) Valid() bool {
	switch k {
	case KanaHiragana, KanaKatakana, KanaMixed:
		return true
	}
	return false
}

type GameType string

const (
	GameQuiz   GameType = "quiz"
	GameSalad  GameType = "salad"
	GameLines  GameType = "lines"
	GameMemory GameType = "memory"
)

// GameTypes lists every game in display order.
var GameTypes = []GameType{GameQuiz, GameSalad, GameLines, GameMemory}

func (g GameType) Valid() bool {
	switch g {
	case GameQuiz, GameSalad, GameLines, GameMemory:
		return true
	}
	return false
}

type Score struct {
	ID        string
	GameType  GameType
	Date      time.Time
	Score     int
	UpdatedAt time.Time
}

// Session carries the caller's bearer token to every provider call.
// The zero value is an anonymous session.
type Session struct {
	Token    string
	Username string
}

func (s Session) Authenticated() bool { return s.Token != "" }

type User struct {
	ID              string
	Username        string
	Email           string
	IsEmailVerified bool
	MFAEnabled      bool
	IsAdmin         bool
	CreatedAt       time.Time
}

// SplitTags parses a comma separated tag filter, dropping blanks.
func SplitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
