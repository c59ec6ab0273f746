package booth

import (
	"encoding/json"
	"fmt"
	"os"
)

type Image struct {
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

type Artist struct {
	Name string `json:"name"`
}

type Artwork struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Artist   Artist  `json:"artist"`
	Barcode  string  `json:"barcode"`
	Sticker  string  `json:"sticker"`
	Images   []Image `json:"images"`
	AnswerID int     `json:"-"`
}

type Answer struct {
	ID         int      `json:"id"`
	QuestionID int      `json:"questionId"`
	Artwork    *Artwork `json:"artwork"`
}

type Question struct {
	ID      int      `json:"id"`
	Title   string   `json:"title"`
	Answers []Answer `json:"answers"`
}

// Data is what a booth loads for its festival.
type Data struct {
	FestivalChainID string     `json:"festivalChainId"`
	Questions       []Question `json:"questions"`
}

func LoadData(path string) (Data, error) {
	var d Data
	raw, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("booth: failed to read booth data: %w", err)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("booth: failed to parse booth data: %w", err)
	}
	return d, nil
}

// DeriveArtworks flattens the answers that carry an artwork into a list of
// artworks tagged with their answer id, and returns the one question they all
// belong to. Answers from two different questions are an error; nothing is
// returned in that case.
func DeriveArtworks(questions []Question) ([]Artwork, int, error) {
	var (
		result     []Artwork
		questionID int
		seen       bool
	)
	for _, question := range questions {
		for _, answer := range question.Answers {
			if answer.Artwork == nil {
				continue
			}
			qid := answer.QuestionID
			if qid == 0 {
				qid = question.ID
			}
			if seen && qid != questionID {
				return nil, 0, fmt.Errorf("%w: answer %d belongs to question %d, not %d",
					ErrInvalidData, answer.ID, qid, questionID)
			}
			questionID, seen = qid, true

			artwork := *answer.Artwork
			artwork.AnswerID = answer.ID
			result = append(result, artwork)
		}
	}
	return result, questionID, nil
}
