package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log"
	"strings"

	errorvalues "github.com/foresvi/tracker/internal/error_values"
	"github.com/foresvi/tracker/internal/repository"
	"github.com/foresvi/tracker/pkg/entity"
)

// ImporterService loads habit templates from delimited text, the format
// the FORESVI seed spreadsheet uses. Rows upsert by (name, company);
// a bad row is counted and skipped, never fatal to the batch.
type ImporterService struct {
	habitsRepo repository.HabitsRepositoryI
}

func NewImporterService(habitsRepo repository.HabitsRepositoryI) *ImporterService {
	if habitsRepo == nil {
		log.Fatal("provided nil habitsRepo to importer")
	}
	return &ImporterService{
		habitsRepo: habitsRepo,
	}
}

// Column synonyms, matched case-insensitively with accents tolerated.
var importColumns = map[string]string{
	"HABITO": "name", "HÁBITO": "name", "NAME": "name", "NOMBRE": "name",
	"TEMA": "topic", "TOPIC": "topic",
	"SEÑAL": "cue", "SENAL": "cue", "CUE": "cue",
	"ANHELO": "craving", "CRAVING": "craving",
	"ACCIÓN": "response", "ACCION": "response", "RESPONSE": "response", "RESPUESTA": "response",
	"RECOMPENSA": "reward", "REWARD": "reward",
	"ENLACE": "link", "LINK": "link", "URL": "link",
}

func (is *ImporterService) ImportHabits(ctx context.Context, companyID string, r io.Reader) (*ImportSummary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New("reading import payload error: " + err.Error())
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.New("reading import header error: " + err.Error())
	}
	fields := make(map[string]int)
	for i, col := range header {
		key := strings.ToUpper(strings.TrimSpace(col))
		if name, ok := importColumns[key]; ok {
			fields[name] = i
		}
	}
	if _, ok := fields["name"]; !ok {
		return nil, errors.New("import header has no recognizable name column")
	}

	summary := &ImportSummary{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			summary.Failed++
			continue
		}
		input := &HabitInput{
			Name:     cell(record, fields, "name"),
			Topic:    strings.ToUpper(cell(record, fields, "topic")),
			Cue:      cell(record, fields, "cue"),
			Craving:  cell(record, fields, "craving"),
			Response: cell(record, fields, "response"),
			Reward:   cell(record, fields, "reward"),
		}
		if link := cell(record, fields, "link"); link != "" {
			input.ExternalLink = &link
		}
		if input.Name == "" || input.Topic == "" {
			summary.Failed++
			continue
		}
		created, err := is.upsert(ctx, companyID, input)
		switch {
		case err != nil:
			summary.Failed++
		case created:
			summary.Created++
		default:
			summary.Updated++
		}
	}
	return summary, nil
}

func (is *ImporterService) upsert(ctx context.Context, companyID string, input *HabitInput) (bool, error) {
	existing, err := is.habitsRepo.GetByNameAndCompany(ctx, input.Name, companyID)
	if err != nil && !errors.Is(err, errorvalues.ErrHabitNotFound) {
		return false, err
	}
	if existing != nil {
		existing.Topic = input.Topic
		existing.Cue = input.Cue
		existing.Craving = input.Craving
		existing.Response = input.Response
		existing.Reward = input.Reward
		existing.ExternalLink = input.ExternalLink
		return false, is.habitsRepo.Update(ctx, existing)
	}
	_, err = is.habitsRepo.Create(ctx, &entity.Habit{
		CompanyID:    companyID,
		Topic:        input.Topic,
		Name:         input.Name,
		Cue:          input.Cue,
		Craving:      input.Craving,
		Response:     input.Response,
		Reward:       input.Reward,
		ExternalLink: input.ExternalLink,
		IsGlobal:     true,
	})
	return true, err
}

func cell(record []string, fields map[string]int, name string) string {
	i, ok := fields[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// sniffDelimiter picks between the semicolon the FORESVI template uses
// and a plain comma, judged on the header line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) >= bytes.Count(line, []byte{','}) && bytes.Contains(line, []byte{';'}) {
		return ';'
	}
	return ','
}
