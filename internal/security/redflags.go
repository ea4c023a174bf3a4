package security

import (
	"regexp"
)

// Level is the urgency assigned to an inbound message
type Level int

const (
	LevelNormal Level = iota
	LevelUrgent
)

func (l Level) String() string {
	if l == LevelUrgent {
		return "urgent"
	}
	return "normal"
}

// EmergencyMessage is returned verbatim for urgent messages instead of a generated answer
const EmergencyMessage = "⚠️ Lo que describes puede ser una urgencia médica. " +
	"Por favor, acude de inmediato al servicio de urgencias más cercano o llama al número de emergencias de tu localidad. " +
	"No esperes a una cita programada: este asistente no puede evaluar emergencias y una valoración presencial es indispensable."

// DefaultRedFlags are phrases that route a message to the emergency reply.
// Matching favours recall: a phrase mentioned in passing still triggers it.
var DefaultRedFlags = []string{
	// acute urinary retention
	"no puedo orinar",
	"no puedo hacer pipí",
	"retención urinaria",
	"retencion urinaria",
	"retención de orina",
	"retencion de orina",
	// gross hematuria
	"sangre en la orina",
	"orina con sangre",
	"orino sangre",
	"hematuria",
	// acute scrotum
	"dolor testicular súbito",
	"dolor testicular subito",
	"dolor testicular repentino",
	"dolor testicular intenso",
	"torsión testicular",
	"torsion testicular",
	// fever
	"fiebre alta",
	"fiebre muy alta",
	// priapism
	"priapismo",
	"erección prolongada",
	"ereccion prolongada",
	"erección dolorosa que no baja",
	"ereccion dolorosa que no baja",
	// trauma
	"trauma genital",
	"traumatismo genital",
	"fractura de pene",
	"golpe en los testículos",
	"golpe en los testiculos",
}

// RedFlagClassifier flags messages that mention high-risk symptoms
type RedFlagClassifier struct {
	phrases  []string
	patterns []*regexp.Regexp
}

// NewRedFlagClassifier compiles the given phrases, or DefaultRedFlags when none are given
func NewRedFlagClassifier(phrases ...string) *RedFlagClassifier {
	if len(phrases) == 0 {
		phrases = DefaultRedFlags
	}

	compiled := make([]*regexp.Regexp, 0, len(phrases))
	for _, p := range phrases {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(p)))
	}

	return &RedFlagClassifier{phrases: phrases, patterns: compiled}
}

// Classify returns LevelUrgent when message contains any red-flag phrase
func (c *RedFlagClassifier) Classify(message string) Level {
	if _, ok := c.Match(message); ok {
		return LevelUrgent
	}
	return LevelNormal
}

// Match returns the first red-flag phrase found in message
func (c *RedFlagClassifier) Match(message string) (string, bool) {
	for i, pattern := range c.patterns {
		if pattern.MatchString(message) {
			return c.phrases[i], true
		}
	}
	return "", false
}
