package web

import (
	"math"
	"net/url"

	vm "github.com/ericfisherdev/krishiai/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/krishiai/internal/domain/model"
)

const displayTime = "02 Jan 2006 15:04"

func toUserBadge(u *model.User) *vm.UserBadge {
	if u == nil {
		return nil
	}
	return &vm.UserBadge{
		Name:     u.Name,
		Village:  u.Village,
		Language: u.Language.DisplayName(),
	}
}

func toDiagnosisCard(d model.Diagnosis) vm.DiagnosisCard {
	crop := d.CropName
	if crop == "" {
		crop = "Unknown crop"
	}
	return vm.DiagnosisCard{
		ID:         d.ID,
		CropName:   crop,
		Disease:    d.Disease,
		Severity:   string(d.Severity),
		IsHealthy:  d.IsHealthy,
		Confidence: int(math.Round(d.Confidence * 100)),
		CreatedAt:  d.CreatedAt.Local().Format(displayTime),
		DetailPath: "/diagnoses/" + url.PathEscape(d.ID),
	}
}

func toDiagnosisDetail(d model.Diagnosis) vm.DiagnosisDetail {
	return vm.DiagnosisDetail{
		DiagnosisCard: toDiagnosisCard(d),
		SummaryHTML:   RenderMarkdown(d.Summary),
		Symptoms:      d.Symptoms,
		Causes:        d.Causes,
		Treatment:     d.Treatment,
		Prevention:    d.Prevention,
	}
}

func toGuideLink(g model.CropGuide) vm.GuideLink {
	return vm.GuideLink{
		Crop:   g.Crop,
		Title:  g.Title,
		Season: g.Season,
		Path:   "/guides/" + url.PathEscape(g.Crop) + "?lang=" + url.QueryEscape(string(g.Language)),
	}
}

func toGuidePage(g model.CropGuide) vm.GuidePage {
	return vm.GuidePage{
		Crop:        g.Crop,
		Title:       g.Title,
		Language:    g.Language.DisplayName(),
		Season:      g.Season,
		SoilType:    g.SoilType,
		Duration:    g.Duration,
		ContentHTML: RenderMarkdown(g.Content),
		Generated:   g.Generated,
	}
}
