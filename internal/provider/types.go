package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexFloat はプロバイダーが数値・文字列のどちらでも送ってくる
// 浮動小数フィールドを受けるための型。null・空文字列・不正値は0になる。
type FlexFloat float64

// UnmarshalJSON はjson.Unmarshalerを実装する。
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}

	// 文字列形式（"17.3"）の場合はクォートを外してパースする
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("FlexFloatの文字列デコードに失敗しました: %w", err)
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("FlexFloatの数値デコードに失敗しました: %w", err)
	}
	*f = FlexFloat(v)
	return nil
}

// Float64 は素のfloat64値を返す。
func (f FlexFloat) Float64() float64 {
	return float64(f)
}

// RawTeam は上流ペイロードのチームオブジェクト。
type RawTeam struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	ImagePath string `json:"image_path"`
}

// RawRun は上流ペイロードのイニングスごとのスコアエントリ。
// プロバイダーは時系列順に並べて送ってくる（末尾＝進行中のイニングス）。
type RawRun struct {
	Inning  int       `json:"inning"`
	TeamID  int64     `json:"team_id"`
	Score   int       `json:"score"`
	Wickets int       `json:"wickets"`
	Overs   FlexFloat `json:"overs"`
}

// RawVenue は上流ペイロードの会場オブジェクト。
type RawVenue struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	City string `json:"city"`
}

// RawLeague は上流ペイロードのリーグオブジェクト。
type RawLeague struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	ImagePath string `json:"image_path"`
}

// RawFixture は上流ペイロードの試合オブジェクト。
// includeパラメータによってはネストされたオブジェクトが欠落するため、
// ポインタフィールドで欠落を表現する。
type RawFixture struct {
	ID            int64     `json:"id"`
	Status        string    `json:"status"`
	Note          string    `json:"note"`
	Type          string    `json:"type"`
	StartingAt    string    `json:"starting_at"`
	LocalTeamID   int64     `json:"localteam_id"`
	VisitorTeamID int64     `json:"visitorteam_id"`
	LocalTeam     *RawTeam  `json:"localteam"`
	VisitorTeam   *RawTeam  `json:"visitorteam"`
	Runs          []RawRun  `json:"runs"`
	Venue         *RawVenue `json:"venue"`
	League        *RawLeague `json:"league"`
	TossWon       *RawTeam  `json:"tosswon"`
	Elected       string    `json:"elected"`
}
