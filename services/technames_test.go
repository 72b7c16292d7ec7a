package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTechName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{"exact match", "react", "react", true},
		{"uppercase", "React", "react", true},
		{"js suffix stripped", "Next.JS", "nextjs", true},
		{"synonym", "node", "nodejs", true},
		{"internal whitespace stripped", "Tail wind", "tailwindcss", true},
		{"short alias", "ts", "typescript", true},
		{"unknown tech", "cobol", "", false},
		{"empty input", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeTechName(tt.input)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTechLogoURL(t *testing.T) {
	assert.Equal(t,
		"https://cdn.jsdelivr.net/gh/devicons/devicon/icons/react/react-original.svg",
		TechLogoURL("React.js"))
	assert.Equal(t, fallbackTechIcon, TechLogoURL("some homegrown framework"))
}

func TestTechLogos(t *testing.T) {
	logos := TechLogos([]string{" React ", "", "cobol"})
	assert.Len(t, logos, 2)
	assert.Equal(t, "React", logos[0].Tech)
	assert.Contains(t, logos[0].URL, "/react/react-original.svg")
	assert.Equal(t, fallbackTechIcon, logos[1].URL)
}

func TestRandomInterviewCover(t *testing.T) {
	for i := 0; i < 20; i++ {
		cover := RandomInterviewCover()
		assert.True(t, strings.HasPrefix(cover, "/covers/"))
		assert.True(t, strings.HasSuffix(cover, ".png"))
	}
}
