package services

import (
	"math/rand/v2"
	"strings"
	"unicode/utf8"

	"calmi-backend/internal/models"
)

// RandSource picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand uses the goroutine-safe top-level math/rand/v2 source.
var DefaultRand RandSource = globalRand{}

const (
	fallbackTipCount = 3
	excerptMaxLength = 220
	ideasLine        = "Here are a few gentle ideas:"
	tipBullet        = "• "
	voicePacingNote  = "If it's okay, let's go one small step at a time."
	textPacingNote   = "Take your time, there's no rush."
	excerptEllipsis  = "…"
)

var openers = []string{
	"I'm here with you.",
	"I hear you.",
	"Thanks for sharing that.",
	"That sounds really tough.",
}

type topicRule struct {
	topic    models.Topic
	keywords []string
}

// Order matters: a message can mention several topics and the first rule wins.
var topicRules = []topicRule{
	{models.TopicPanic, []string{"panic", "attack", "hypervent", "short of breath"}},
	{models.TopicAnxiety, []string{"anxious", "anxiety", "worried", "nervous", "overwhelm"}},
	{models.TopicLow, []string{"sad", "depress", "down", "hopeless", "cry"}},
	{models.TopicSleep, []string{"sleep", "insomnia", "tired"}},
	{models.TopicAnger, []string{"angry", "anger", "frustrat", "irritat"}},
}

var topicTips = map[models.Topic][]string{
	models.TopicPanic: {
		"Try 4-4-4-4 box breathing: inhale 4, hold 4, exhale 4, hold 4.",
		"Name 5 things you see around you to re-anchor in the present.",
		"Place a hand on your chest and feel it rise and fall.",
		"Remind yourself: panic peaks and passes, and you're safe right now.",
	},
	models.TopicAnxiety: {
		"Write down the worry and one tiny next step you can take.",
		"Relax your jaw and shoulders; take a slower breath out than in.",
		"Limit news and social scrolling for a short while.",
		"Try the 5-4-3-2-1 grounding technique.",
	},
	models.TopicLow: {
		"Reach out to someone you trust, even with a short message.",
		"Step outside for 2 minutes of daylight if possible.",
		"Drink a glass of water and have a small snack.",
		"If thoughts of harm arise, contact one of the helplines listed below.",
	},
	models.TopicSleep: {
		"Try a 4-7-8 breath for a minute as you lie down.",
		"Dim screens and lower the lights; let your eyes rest.",
		"Note one worry on paper and promise to revisit it tomorrow.",
		"Play gentle white noise to soften sudden sounds.",
	},
	models.TopicAnger: {
		"Pause and splash cool water on your face or wrists.",
		"Exhale slowly through pursed lips and count to 5.",
		"Name the feeling without judging it; it will pass.",
		"Move your body: walk, stretch, or shake out the tension.",
	},
	models.TopicGeneral: {
		"Try 4-7-8 breathing for a minute.",
		"Notice 5 things you can see, 4 you can touch, 3 you can hear.",
		"Sip some water and relax your shoulders.",
		"If you are in danger or at risk, contact a local emergency line or a helpline below.",
	},
}

// DetectTopic classifies text with ordered, case-insensitive substring tests.
func DetectTopic(text string) models.Topic {
	s := strings.ToLower(text)
	for _, rule := range topicRules {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.topic
			}
		}
	}
	return models.TopicGeneral
}

// TopicTips returns a copy of the canned tips for a topic.
func TopicTips(topic models.Topic) []string {
	tips, ok := topicTips[topic]
	if !ok {
		tips = topicTips[models.TopicGeneral]
	}
	return append([]string(nil), tips...)
}

// FallbackGenerator writes a supportive reply without any upstream model.
type FallbackGenerator struct {
	rnd RandSource
}

func NewFallbackGenerator(rnd RandSource) *FallbackGenerator {
	if rnd == nil {
		rnd = DefaultRand
	}
	return &FallbackGenerator{rnd: rnd}
}

func (g *FallbackGenerator) Generate(req *models.ChatRequest) *models.ReplyResult {
	text := strings.TrimSpace(req.Message)
	analyzed := text
	if analyzed == "" {
		analyzed = lastUserTurn(req.History)
	}
	topic := DetectTopic(analyzed)

	opener := openers[g.rnd.IntN(len(openers))]
	tips := g.pickN(TopicTips(topic), fallbackTipCount)

	note := textPacingNote
	if req.IsVoice() {
		note = voicePacingNote
	}

	lead := ""
	if text != "" {
		lead = "You said: “" + truncateExcerpt(text, excerptMaxLength) + "”. "
	}

	lines := make([]string, 0, 2+len(tips))
	lines = append(lines, strings.TrimSpace(opener+" "+lead+note), ideasLine)
	for _, tip := range tips {
		lines = append(lines, tipBullet+tip)
	}

	return &models.ReplyResult{
		Text:   ClampReply(strings.Join(lines, "\n")),
		Source: models.SourceFallback,
	}
}

// pickN draws n items without replacement.
func (g *FallbackGenerator) pickN(items []string, n int) []string {
	out := make([]string, 0, n)
	for len(out) < n && len(items) > 0 {
		i := g.rnd.IntN(len(items))
		out = append(out, items[i])
		items = append(items[:i], items[i+1:]...)
	}
	return out
}

func lastUserTurn(history []models.ChatTurn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if strings.EqualFold(strings.TrimSpace(history[i].Role), models.RoleUser) {
			return history[i].Content
		}
	}
	return ""
}

// truncateExcerpt keeps at most n characters, ending with an ellipsis when cut.
func truncateExcerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return truncateRunes(s, n-1) + excerptEllipsis
}
