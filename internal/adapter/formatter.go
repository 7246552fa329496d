package adapter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kapu/conference-companion-go/internal/constants"
	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/util"
)

// ResponseFormatter renders content as plain text for the assistant prompt.
type ResponseFormatter struct{}

func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{}
}

type agendaView struct {
	Day   domain.Day
	Lines []string
}

// FormatAgenda renders one day of cards, one line per card.
func (f *ResponseFormatter) FormatAgenda(day domain.Day, cards []domain.ScheduleCard) string {
	lines := make([]string, 0, len(cards))
	for _, card := range cards {
		lines = append(lines, util.TruncateString(f.agendaLine(card), constants.StringLimits.AgendaLine))
	}

	out, err := executeFormatterTemplate("agenda", agendaView{Day: day, Lines: lines})
	if err != nil {
		return fmt.Sprintf("%s: %s", day, strings.Join(lines, "; "))
	}
	return out
}

func (f *ResponseFormatter) agendaLine(card domain.ScheduleCard) string {
	when := card.FormattedStartTime
	if card.FormattedEndTime != "" {
		when += "-" + card.FormattedEndTime
	}

	what := card.Heading
	if card.Subheading != "" {
		what += " / " + card.Subheading
	}
	return fmt.Sprintf("%s %s (%s)", when, what, card.Type)
}

type speakerView struct {
	Name    string
	Company string
	Type    domain.SpeakerType
	Bio     string
}

// FormatSpeakers renders a numbered speaker directory with shortened bios.
func (f *ResponseFormatter) FormatSpeakers(speakers []*domain.Speaker) string {
	views := make([]speakerView, 0, len(speakers))
	for _, sp := range util.Compact(speakers) {
		views = append(views, speakerView{
			Name:    sp.Name,
			Company: sp.Company,
			Type:    sp.Type,
			Bio:     util.TruncateString(sp.BioText, constants.StringLimits.SpeakerBio),
		})
	}

	out, err := executeFormatterTemplate("speakers", views)
	if err != nil {
		return fmt.Sprintf("Speakers: %d", len(views))
	}
	return out
}

type sponsorTierView struct {
	Tier  domain.SponsorTier
	Names []string
}

// FormatSponsors groups sponsors by tier, Platinum first.
func (f *ResponseFormatter) FormatSponsors(sponsors []*domain.Sponsor) string {
	byTier := util.GroupBy(util.Compact(sponsors), func(s *domain.Sponsor) domain.SponsorTier { return s.Tier })

	tiers := make([]domain.SponsorTier, 0, len(byTier))
	for tier := range byTier {
		tiers = append(tiers, tier)
	}
	slices.SortFunc(tiers, func(a, b domain.SponsorTier) int {
		if a.Rank() != b.Rank() {
			return a.Rank() - b.Rank()
		}
		return strings.Compare(string(a), string(b))
	})

	views := make([]sponsorTierView, 0, len(tiers))
	for _, tier := range tiers {
		views = append(views, sponsorTierView{
			Tier:  tier,
			Names: util.Map(byTier[tier], func(s *domain.Sponsor) string { return s.Name }),
		})
	}

	out, err := executeFormatterTemplate("sponsors", views)
	if err != nil {
		return fmt.Sprintf("Sponsors: %d", len(sponsors))
	}
	return out
}
