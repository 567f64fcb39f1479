package dto

import "github.com/yigit/sqlguide/internal/curriculum"

// PartSummary is one entry of the parts listing
type PartSummary struct {
	Number     int    `json:"number" example:"2"`
	Title      string `json:"title" example:"Joins and Grouping"`
	Challenges int    `json:"challenges" example:"14"`
}

// PartResponse is a part with its introduction and challenge list
type PartResponse struct {
	PartSummary
	Intro      string             `json:"intro"`
	Challenges []ChallengeSummary `json:"challengeList"`
}

// ChallengeSummary is a challenge without its answer
type ChallengeSummary struct {
	ID         string `json:"id" example:"1.9"`
	Part       int    `json:"part" example:"1"`
	Number     int    `json:"number" example:"9"`
	Title      string `json:"title" example:"Count Employees"`
	Difficulty string `json:"difficulty" example:"Easy"`
	GradeMode  string `json:"gradeMode" example:"exact"`
}

// ChallengeResponse is the full challenge. Solution and explanation are
// only filled in when asked for.
type ChallengeResponse struct {
	ChallengeSummary
	Problem        string `json:"problem"`
	ExpectedOutput string `json:"expectedOutput"`
	Solution       string `json:"solution,omitempty"`
	Explanation    string `json:"explanation,omitempty"`
}

// FromChallengeSummary converts a curriculum.Challenge to a ChallengeSummary
func FromChallengeSummary(ch *curriculum.Challenge) ChallengeSummary {
	return ChallengeSummary{
		ID:         ch.ID,
		Part:       ch.Part,
		Number:     ch.Number,
		Title:      ch.Title,
		Difficulty: string(ch.Difficulty),
		GradeMode:  string(ch.Mode),
	}
}

// FromChallenge converts a curriculum.Challenge to a ChallengeResponse
func FromChallenge(ch *curriculum.Challenge, withSolution bool) ChallengeResponse {
	resp := ChallengeResponse{
		ChallengeSummary: FromChallengeSummary(ch),
		Problem:          ch.Problem,
		ExpectedOutput:   ch.ExpectedOutput,
	}
	if withSolution {
		resp.Solution = ch.Solution
		resp.Explanation = ch.Explanation
	}
	return resp
}

// FromPart converts a curriculum.Part to a PartResponse
func FromPart(p *curriculum.Part) PartResponse {
	resp := PartResponse{
		PartSummary: PartSummary{Number: p.Number, Title: p.Title, Challenges: len(p.Challenges)},
		Intro:       p.Intro,
		Challenges:  make([]ChallengeSummary, 0, len(p.Challenges)),
	}
	for _, ch := range p.Challenges {
		resp.Challenges = append(resp.Challenges, FromChallengeSummary(ch))
	}
	return resp
}
