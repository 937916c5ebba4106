package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/temirov/otpcop/internal/audit"
)

const (
	jsonIndentPrefixConstant = ""
	jsonIndentConstant       = "  "
	yamlIndentConstant       = 2
)

// Document is the machine readable form of an audit run.
type Document struct {
	Alarming bool              `json:"alarming" yaml:"alarming"`
	Backends []BackendDocument `json:"backends" yaml:"backends"`
}

// BackendDocument describes the outcome of one backend.
type BackendDocument struct {
	Backend  string            `json:"backend" yaml:"backend"`
	Status   audit.OutcomeKind `json:"status" yaml:"status"`
	Message  string            `json:"message,omitempty" yaml:"message,omitempty"`
	Accounts []AccountDocument `json:"accounts,omitempty" yaml:"accounts,omitempty"`
}

// AccountDocument describes one flagged account.
type AccountDocument struct {
	Name    string `json:"name" yaml:"name"`
	Email   string `json:"email,omitempty" yaml:"email,omitempty"`
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// NewDocument converts outcomes into a Document preserving their order.
func NewDocument(outcomes []audit.Outcome) Document {
	document := Document{
		Alarming: audit.Alarming(outcomes),
		Backends: make([]BackendDocument, 0, len(outcomes)),
	}
	for _, outcome := range outcomes {
		backendDocument := BackendDocument{
			Backend: outcome.BackendName(),
			Status:  outcome.Kind(),
		}
		if outcome.IsFailure() {
			backendDocument.Message = outcome.Message()
		}
		for _, account := range outcome.Accounts() {
			accountDocument := AccountDocument{Name: account.Name()}
			accountDocument.Email, _ = account.Email()
			accountDocument.Details, _ = account.Details()
			backendDocument.Accounts = append(backendDocument.Accounts, accountDocument)
		}
		document.Backends = append(document.Backends, backendDocument)
	}
	return document
}

type jsonRenderer struct{}

func (jsonRenderer) Render(writer io.Writer, outcomes []audit.Outcome) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent(jsonIndentPrefixConstant, jsonIndentConstant)
	return encoder.Encode(NewDocument(outcomes))
}

type yamlRenderer struct{}

func (yamlRenderer) Render(writer io.Writer, outcomes []audit.Outcome) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(yamlIndentConstant)
	if encodeError := encoder.Encode(NewDocument(outcomes)); encodeError != nil {
		return encodeError
	}
	return encoder.Close()
}
