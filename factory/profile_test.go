package factory_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/warp/reservation-engine/factory"
)

func TestParseProfile_FullDocument(t *testing.T) {
	p, err := factory.ParseProfile(`{
		"name": "weekend",
		"weights": {
			"availability": 0.5,
			"skill": 0.2,
			"distance": 0.2,
			"performance": 0.1
		},
		"offer_window_minutes": 15
	}`)
	require.NoError(t, err)
	require.Equal(t, "weekend", p.Name)
	require.True(t, p.Weights.Availability.Equal(decimal.NewFromFloat(0.5)))
	require.True(t, p.Weights.Performance.Equal(decimal.NewFromFloat(0.1)))
	require.Equal(t, 15*time.Minute, p.OfferWindow)
}

func TestParseProfile_MissingFieldsUseDefaults(t *testing.T) {
	// Only skill overridden; everything else stays at the defaults.
	p, err := factory.ParseProfile(`{"weights": {"skill": 0.5}}`)
	require.NoError(t, err)

	def := factory.DefaultProfile()
	require.True(t, p.Weights.Skill.Equal(decimal.NewFromFloat(0.5)))
	require.True(t, p.Weights.Availability.Equal(def.Weights.Availability))
	require.Equal(t, def.OfferWindow, p.OfferWindow)
}

func TestParseProfile_Invalid(t *testing.T) {
	_, err := factory.ParseProfile(`not json`)
	require.Error(t, err)

	_, err = factory.ParseProfile(`{"weights": {"skill": -1}}`)
	require.Error(t, err, "negative weight must be rejected")

	_, err = factory.ParseProfile(`{"offer_window_minutes": 0}`)
	require.Error(t, err, "zero offer window must be rejected")

	_, err = factory.ParseProfile(`{"weights": {"availability": 0, "skill": 0, "distance": 0, "performance": 0}}`)
	require.Error(t, err, "all-zero weights must be rejected")
}

func TestLoadProfile_EmptyPathIsDefault(t *testing.T) {
	p, err := factory.LoadProfile("")
	require.NoError(t, err)
	require.Equal(t, "default", p.Name)
}

func TestLoadProfile_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name": "from-file", "offer_window_minutes": 45}`), 0o644))

	p, err := factory.LoadProfile(path)
	require.NoError(t, err)
	require.Equal(t, "from-file", p.Name)
	require.Equal(t, 45*time.Minute, p.OfferWindow)
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := factory.LoadProfile("/nonexistent/profile.json")
	require.Error(t, err)
}
