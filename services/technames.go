package services

import (
	"fmt"
	"math/rand"
	"strings"
)

const techIconBaseURL = "https://cdn.jsdelivr.net/gh/devicons/devicon/icons"

// fallbackTechIcon is served when a technology has no devicon entry
const fallbackTechIcon = "/tech.svg"

// techNameMappings maps normalized technology spellings to their canonical
// devicon keys. Keys are matched after normalization; absence simply means
// the generic icon is used.
var techNameMappings = map[string]string{
	"react.js":        "react",
	"reactjs":         "react",
	"react":           "react",
	"next.js":         "nextjs",
	"nextjs":          "nextjs",
	"next":            "nextjs",
	"vue.js":          "vuejs",
	"vuejs":           "vuejs",
	"vue":             "vuejs",
	"express.js":      "express",
	"expressjs":       "express",
	"express":         "express",
	"node.js":         "nodejs",
	"nodejs":          "nodejs",
	"node":            "nodejs",
	"mongodb":         "mongodb",
	"mongo":           "mongodb",
	"mongoose":        "mongoose",
	"mysql":           "mysql",
	"postgresql":      "postgresql",
	"sqlite":          "sqlite",
	"firebase":        "firebase",
	"docker":          "docker",
	"kubernetes":      "kubernetes",
	"aws":             "aws",
	"azure":           "azure",
	"gcp":             "gcp",
	"digitalocean":    "digitalocean",
	"heroku":          "heroku",
	"photoshop":       "photoshop",
	"adobe photoshop": "photoshop",
	"html5":           "html5",
	"html":            "html5",
	"css3":            "css3",
	"css":             "css3",
	"sass":            "sass",
	"scss":            "sass",
	"less":            "less",
	"tailwindcss":     "tailwindcss",
	"tailwind":        "tailwindcss",
	"bootstrap":       "bootstrap",
	"jquery":          "jquery",
	"typescript":      "typescript",
	"ts":              "typescript",
	"javascript":      "javascript",
	"js":              "javascript",
	"angular.js":      "angular",
	"angularjs":       "angular",
	"angular":         "angular",
	"ember.js":        "ember",
	"emberjs":         "ember",
	"ember":           "ember",
	"backbone.js":     "backbone",
	"backbonejs":      "backbone",
	"backbone":        "backbone",
	"nestjs":          "nestjs",
	"graphql":         "graphql",
	"graph ql":        "graphql",
	"apollo":          "apollo",
	"webpack":         "webpack",
	"babel":           "babel",
	"rollup.js":       "rollup",
	"rollupjs":        "rollup",
	"rollup":          "rollup",
	"parcel.js":       "parcel",
	"parceljs":        "parcel",
	"npm":             "npm",
	"yarn":            "yarn",
	"git":             "git",
	"github":          "github",
	"gitlab":          "gitlab",
	"bitbucket":       "bitbucket",
	"figma":           "figma",
	"prisma":          "prisma",
	"redux":           "redux",
	"flux":            "flux",
	"redis":           "redis",
	"selenium":        "selenium",
	"cypress":         "cypress",
	"jest":            "jest",
	"mocha":           "mocha",
	"chai":            "chai",
	"karma":           "karma",
	"vuex":            "vuex",
	"nuxt.js":         "nuxt",
	"nuxtjs":          "nuxt",
	"nuxt":            "nuxt",
	"strapi":          "strapi",
	"wordpress":       "wordpress",
	"contentful":      "contentful",
	"netlify":         "netlify",
	"vercel":          "vercel",
	"aws amplify":     "amplify",
}

// interviewCovers is the fixed pool of company cover images shipped with the
// frontend
var interviewCovers = []string{
	"/adobe.png",
	"/amazon.png",
	"/facebook.png",
	"/hostinger.png",
	"/pinterest.png",
	"/quora.png",
	"/reddit.png",
	"/skype.png",
	"/spotify.png",
	"/telegram.png",
	"/tiktok.png",
	"/yahoo.png",
}

// NormalizeTechName maps a free-form technology spelling to its canonical
// devicon key. Input is lowercased, a trailing ".js" suffix is stripped, and
// internal whitespace is removed before the table lookup. Unknown names
// return ok=false, which is not an error.
func NormalizeTechName(tech string) (string, bool) {
	key := strings.ToLower(tech)
	key = strings.TrimSuffix(key, ".js")
	key = strings.Join(strings.Fields(key), "")

	canonical, ok := techNameMappings[key]
	return canonical, ok
}

// TechLogo pairs a technology name with its icon URL
type TechLogo struct {
	Tech string `json:"tech"`
	URL  string `json:"url"`
}

// TechLogoURL builds the devicon URL for a technology, falling back to the
// generic icon for unknown names
func TechLogoURL(tech string) string {
	normalized, ok := NormalizeTechName(tech)
	if !ok {
		return fallbackTechIcon
	}
	return fmt.Sprintf("%s/%s/%s-original.svg", techIconBaseURL, normalized, normalized)
}

// TechLogos resolves icon URLs for a technology list, skipping blank entries
func TechLogos(techs []string) []TechLogo {
	logos := make([]TechLogo, 0, len(techs))
	for _, tech := range techs {
		trimmed := strings.TrimSpace(tech)
		if trimmed == "" {
			continue
		}
		logos = append(logos, TechLogo{Tech: trimmed, URL: TechLogoURL(trimmed)})
	}
	return logos
}

// RandomInterviewCover picks a cover image for a newly created interview
func RandomInterviewCover() string {
	return "/covers" + interviewCovers[rand.Intn(len(interviewCovers))]
}
