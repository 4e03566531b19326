package scoring

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"leadflow/internal/prospect/models"
	dErrors "leadflow/pkg/domain-errors"
)

type QualificationSuite struct {
	suite.Suite
	engine *Engine
}

func TestQualificationSuite(t *testing.T) {
	suite.Run(t, new(QualificationSuite))
}

func (s *QualificationSuite) SetupTest() {
	s.engine = NewEngine(DefaultConfig())
}

func (s *QualificationSuite) TestReferenceProspect() {
	res, err := s.engine.Qualify(QualificationInput{
		CompanySize:    "51-200",
		JobTitle:       "VP Sales",
		Industry:       "Technology",
		EnrichmentData: map[string]any{},
	}, 60)
	s.Require().NoError(err)

	want := models.Breakdown{Budget: 18, Authority: 18, Need: 10, Timeline: 10}
	if diff := cmp.Diff(want, res.Breakdown); diff != "" {
		s.Failf("breakdown mismatch", "(-want +got):\n%s", diff)
	}
	s.Equal(56, res.Total)
	s.False(res.Qualified)
	s.Equal(RecommendNurture, res.Recommendation)
	s.Equal(60, res.Threshold)
}

func (s *QualificationSuite) TestEnrichmentSignalsLiftNeed() {
	res, err := s.engine.Qualify(QualificationInput{
		CompanySize: "51-200",
		JobTitle:    "VP Sales",
		Industry:    "Technology",
		EnrichmentData: map[string]any{
			SignalEmployerSize: "51-200",
			SignalSeniority:    "vp",
		},
	}, 60)
	s.Require().NoError(err)
	s.Equal(models.Breakdown{Budget: 18, Authority: 18, Need: 20, Timeline: 10}, res.Breakdown)
	s.Equal(66, res.Total)
	s.True(res.Qualified)
	s.Equal(RecommendContact, res.Recommendation)
}

func (s *QualificationSuite) TestThresholdIsSingleSourceOfTruth() {
	in := QualificationInput{CompanySize: "51-200", JobTitle: "VP Sales", Industry: "Technology"}

	res, err := s.engine.Qualify(in, 50)
	s.Require().NoError(err)
	s.True(res.Qualified)
	s.Equal(RecommendContact, res.Recommendation)

	res, err = s.engine.Qualify(in, 57)
	s.Require().NoError(err)
	s.False(res.Qualified)
	s.Equal(RecommendNurture, res.Recommendation)
}

func (s *QualificationSuite) TestZeroThresholdQualifiesEverything() {
	res, err := s.engine.Qualify(QualificationInput{}, 0)
	s.Require().NoError(err)
	s.Equal(0, res.Threshold)
	s.Equal(25, res.Total)
	s.True(res.Qualified)
	s.Equal(RecommendContact, res.Recommendation)
}

func (s *QualificationSuite) TestDefaultThresholdSentinel() {
	res, err := s.engine.Qualify(QualificationInput{}, UseDefaultThreshold)
	s.Require().NoError(err)
	s.Equal(60, res.Threshold)
	s.Equal(models.Breakdown{Budget: 5, Authority: 5, Need: 5, Timeline: 10}, res.Breakdown)
	s.Equal(25, res.Total)
	s.Equal(RecommendReject, res.Recommendation)
}

func (s *QualificationSuite) TestRejectsOutOfRangeThreshold() {
	for _, th := range []int{-2, 101} {
		_, err := s.engine.Qualify(QualificationInput{}, th)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	}
}

func (s *QualificationSuite) TestDeterministicAndBounded() {
	inputs := []QualificationInput{
		{},
		{CompanySize: "10000+", JobTitle: "CEO", Industry: "Fintech", LinkedInURL: "https://linkedin.com/in/x",
			EnrichmentData: map[string]any{SignalEmployerSize: "10000+", SignalSeniority: "c_suite", SignalRecency: "2026-01-01"}},
		{CompanySize: "n/a", JobTitle: "Intern"},
	}
	for _, in := range inputs {
		first := Qualify(in, 60, 40)
		for range 5 {
			s.Equal(first, Qualify(in, 60, 40))
		}
		s.Equal(first.Breakdown.Total(), first.Total)
		s.GreaterOrEqual(first.Total, 0)
		s.LessOrEqual(first.Total, 100)
		for _, part := range []int{first.Breakdown.Budget, first.Breakdown.Authority, first.Breakdown.Need, first.Breakdown.Timeline} {
			s.GreaterOrEqual(part, 0)
			s.LessOrEqual(part, 25)
		}
	}
}

func TestBudget(t *testing.T) {
	cases := []struct {
		size string
		want int
	}{
		{"", 5},
		{"unknown", 5},
		{"1-9", 5},
		{"10", 8},
		{"11-29", 8},
		{"11-50", 13},
		{"30", 13},
		{"99", 13},
		{"51-200", 18},
		{"100", 18},
		{"499", 18},
		{"201-500", 23},
		{"500", 23},
		{"1,001-5,000", 23},
		{"10000+", 23},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Budget(tc.size), "company_size=%q", tc.size)
	}
}

func TestAuthority(t *testing.T) {
	cases := []struct {
		title string
		want  int
	}{
		{"CEO", 23},
		{"ceo", 23},
		{"Ceo & Co-Founder", 23},
		{"Founder", 23},
		{"President", 23},
		{"Chief Revenue Officer", 23},
		{"CTO", 23},
		{"VP Sales", 18},
		{"Vice President of Sales", 18},
		{"SVP, Marketing", 18},
		{"Head of Growth", 18},
		{"Director of Engineering", 13},
		{"Sales Director", 13},
		{"Engineering Manager", 8},
		{"Team Lead", 8},
		{"Software Engineer", 5},
		{"", 5},
		{"   ", 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Authority(tc.title), "job_title=%q", tc.title)
	}
}

func TestNeed(t *testing.T) {
	assert.Equal(t, 5, Need("", nil))
	assert.Equal(t, 10, Need("Technology", nil))
	assert.Equal(t, 10, Need("", map[string]any{SignalSeniority: "manager"}))
	assert.Equal(t, 15, Need("Technology", map[string]any{SignalEmployerSize: "51-200"}))
	assert.Equal(t, 20, Need("Technology", map[string]any{SignalEmployerSize: "51-200", SignalSeniority: "vp"}))

	t.Run("reads nested raw_data", func(t *testing.T) {
		enrichment := map[string]any{"raw_data": map[string]any{SignalEmployerSize: 120, SignalSeniority: "vp"}}
		assert.Equal(t, 15, Need("", enrichment))
	})

	t.Run("blank values are not signals", func(t *testing.T) {
		assert.Equal(t, 5, Need("  ", map[string]any{SignalEmployerSize: "", SignalSeniority: nil}))
	})
}

func TestTimeline(t *testing.T) {
	assert.Equal(t, 10, Timeline("", nil))
	assert.Equal(t, 10, Timeline("https://linkedin.com/in/jane", nil))
	assert.Equal(t, 15, Timeline("", map[string]any{SignalRecency: "2026-04-01T00:00:00Z"}))
	assert.Equal(t, 15, Timeline("https://linkedin.com/in/jane", map[string]any{SignalRecency: "2026-04-01"}))
}

func TestNewEngine_FillsDefaults(t *testing.T) {
	e := NewEngine(Config{})
	require.Equal(t, DefaultConfig(), e.Config())
}
