package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// legacyIDSpace namespaces the ids derived from millisecond timestamps.
var legacyIDSpace = uuid.MustParse("6f1c2a52-3c8e-4f0b-9d59-2b7f3e1a8c40")

// TimeEntry is one calendar day of logged work. It decodes both its own
// JSON form and the French-keyed form the browser client stored per month,
// whose ids are numeric timestamps.
type TimeEntry struct {
	ID          uuid.UUID `json:"id"`
	Date        string    `json:"date"`
	RouteNumber string    `json:"routeNumber"`
	PointCount  string    `json:"pointCount"`
	WorkerName  string    `json:"workerName"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	WorkedHours float64   `json:"workedHours"`
	File        string    `json:"file,omitempty"`
	FileName    string    `json:"fileName"`
	FileType    string    `json:"fileType"`
}

type timeEntryJSON struct {
	ID          json.RawMessage `json:"id"`
	Date        string          `json:"date"`
	RouteNumber *string         `json:"routeNumber"`
	PointCount  json.RawMessage `json:"pointCount"`
	WorkerName  *string         `json:"workerName"`
	StartTime   *string         `json:"startTime"`
	EndTime     *string         `json:"endTime"`
	WorkedHours *float64        `json:"workedHours"`
	File        *string         `json:"file"`
	FileName    *string         `json:"fileName"`
	FileType    *string         `json:"fileType"`

	NumeroTournee     string          `json:"numeroTournee"`
	NombrePoints      json.RawMessage `json:"nombrePoints"`
	Ripeur            string          `json:"ripeur"`
	HeureDebut        string          `json:"heureDebut"`
	HeureFin          string          `json:"heureFin"`
	HeuresTravaillees float64         `json:"heuresTravaillees"`
	Fichier           *string         `json:"fichier"`
	FichierNom        string          `json:"fichierNom"`
	FichierType       string          `json:"fichierType"`
}

func (e *TimeEntry) UnmarshalJSON(data []byte) error {
	var raw timeEntryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := decodeEntryID(raw.ID)
	if err != nil {
		return err
	}
	points, err := decodeText(raw.PointCount)
	if err != nil {
		return fmt.Errorf("pointCount: %w", err)
	}
	legacyPoints, err := decodeText(raw.NombrePoints)
	if err != nil {
		return fmt.Errorf("nombrePoints: %w", err)
	}

	*e = TimeEntry{
		ID:          id,
		Date:        raw.Date,
		RouteNumber: pick(raw.RouteNumber, raw.NumeroTournee),
		PointCount:  points,
		WorkerName:  pick(raw.WorkerName, raw.Ripeur),
		StartTime:   pick(raw.StartTime, raw.HeureDebut),
		EndTime:     pick(raw.EndTime, raw.HeureFin),
		WorkedHours: raw.HeuresTravaillees,
		File:        pick(raw.File, pick(raw.Fichier, "")),
		FileName:    pick(raw.FileName, raw.FichierNom),
		FileType:    pick(raw.FileType, raw.FichierType),
	}
	if raw.PointCount == nil {
		e.PointCount = legacyPoints
	}
	if raw.WorkedHours != nil {
		e.WorkedHours = *raw.WorkedHours
	}
	return nil
}

// decodeEntryID accepts a UUID string or the numeric id of a browser entry,
// which maps to the same UUID on every load.
func decodeEntryID(raw json.RawMessage) (uuid.UUID, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return uuid.Nil, nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return uuid.Nil, err
		}
		if id, err := uuid.Parse(text); err == nil {
			return id, nil
		}
		return uuid.NewSHA1(legacyIDSpace, []byte(text)), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return uuid.Nil, fmt.Errorf("entry id: %w", err)
	}
	return uuid.NewSHA1(legacyIDSpace, []byte(n.String())), nil
}

// decodeText reads a JSON string or number as the text it carries.
func decodeText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var text string
		err := json.Unmarshal(raw, &text)
		return text, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return strings.TrimSpace(n.String()), nil
}

func pick(current *string, legacy string) string {
	if current != nil {
		return *current
	}
	return legacy
}

func (e TimeEntry) HasAttachment() bool {
	return e.File != ""
}

// IsWorkedDay reports whether the entry counts as a worked day, whatever
// the computed duration.
func (e TimeEntry) IsWorkedDay() bool {
	return e.Date != "" && e.StartTime != "" && e.EndTime != ""
}

type Attachment struct {
	Content  string
	FileName string
	FileType string
}

// EntryPatch carries a partial update. Nil fields are left untouched.
type EntryPatch struct {
	Date        *string
	RouteNumber *string
	PointCount  *string
	WorkerName  *string
	StartTime   *string
	EndTime     *string
}

func (p EntryPatch) TouchesTimes() bool {
	return p.StartTime != nil || p.EndTime != nil
}
