// Package catalog defines the fixed, ordered sequence of business-plan stages
// that the journey engine walks through, grouped into eight phases. The catalog
// is compiled into the binary and never changes at runtime; every other package
// treats it as the single source of truth for stage ordering, phase membership,
// data-field mapping, and stage classification.
package catalog

import (
	"fmt"
	"strings"
)

// Stage is one named step in the guided business-plan journey.
type Stage string

// Phase is a named grouping of consecutive stages.
type Phase string

const (
	PhaseCoreConcept        Phase = "CORE_CONCEPT"
	PhaseMarketAnalysis     Phase = "MARKET_ANALYSIS"
	PhaseBusinessModeling   Phase = "BUSINESS_MODELING"
	PhaseBranding           Phase = "BRANDING"
	PhaseProductDevelopment Phase = "PRODUCT_DEVELOPMENT"
	PhaseMarketingSales     Phase = "MARKETING_SALES"
	PhaseOrganization       Phase = "ORGANIZATION_FINANCIALS"
	PhaseFinalOutputs       Phase = "FINAL_OUTPUTS"
)

// Structural markers. Neither carries a data key.
const (
	StageInitial  Stage = "INITIAL"
	StageComplete Stage = "COMPLETE"
)

// Phase 1: Core Concept & Validation
const (
	StageIdeaTitle            Stage = "IDEA_TITLE"
	StageElevatorPitch        Stage = "ELEVATOR_PITCH"
	StageExecutiveSummary     Stage = "EXECUTIVE_SUMMARY"
	StageProblemDescription   Stage = "PROBLEM_DESCRIPTION"
	StageProblemMagnitude     Stage = "PROBLEM_MAGNITUDE"
	StageCurrentSolutions     Stage = "CURRENT_SOLUTIONS"
	StageCustomerSegments     Stage = "CUSTOMER_SEGMENTS"
	StageEarlyAdopterPersona  Stage = "EARLY_ADOPTER_PERSONA"
	StageProductDescription   Stage = "PRODUCT_DESCRIPTION"
	StageHowItWorks           Stage = "HOW_IT_WORKS"
	StageUVPStatement         Stage = "UVP_STATEMENT"
	StageUnfairAdvantage      Stage = "UNFAIR_ADVANTAGE"
	StageValidationSummary    Stage = "VALIDATION_SUMMARY"
	StageBusinessGoals        Stage = "BUSINESS_GOALS_TIMELINE"
	StageCoreConceptSummary   Stage = "CORE_CONCEPT_SUMMARY"
)

// Phase 2: Market, Competition & Risk Analysis
const (
	StagePESTELAnalysis           Stage = "PESTEL_ANALYSIS"
	StageTAMAnalysis              Stage = "TAM_ANALYSIS"
	StageSAMAnalysis              Stage = "SAM_ANALYSIS"
	StageSOMAnalysis              Stage = "SOM_ANALYSIS"
	StageCompetitorIdentification Stage = "COMPETITOR_IDENTIFICATION"
	StageCompetitorAnalysis       Stage = "COMPETITOR_ANALYSIS"
	StageSWOTAnalysis             Stage = "SWOT_ANALYSIS"
	StageRiskAnalysis             Stage = "RISK_ANALYSIS"
	StageMarketAnalysisSummary    Stage = "MARKET_ANALYSIS_SUMMARY"
)

// Phase 3: Business Modeling (Business Model Canvas)
const (
	StageBMCCustomerSegments      Stage = "BMC_CUSTOMER_SEGMENTS"
	StageBMCValuePropositions     Stage = "BMC_VALUE_PROPOSITIONS"
	StageBMCChannels              Stage = "BMC_CHANNELS"
	StageBMCCustomerRelationships Stage = "BMC_CUSTOMER_RELATIONSHIPS"
	StageBMCRevenueStreams        Stage = "BMC_REVENUE_STREAMS"
	StageBMCKeyResources          Stage = "BMC_KEY_RESOURCES"
	StageBMCKeyActivities         Stage = "BMC_KEY_ACTIVITIES"
	StageBMCKeyPartnerships       Stage = "BMC_KEY_PARTNERSHIPS"
	StageBMCCostStructure         Stage = "BMC_COST_STRUCTURE"
	StageBusinessModelingSummary  Stage = "BUSINESS_MODELING_SUMMARY"
)

// Phase 4: Branding & Identity
const (
	StageBrandVision        Stage = "BRAND_VISION"
	StageBrandMission       Stage = "BRAND_MISSION"
	StageCoreValues         Stage = "CORE_VALUES"
	StageBrandPersonality   Stage = "BRAND_PERSONALITY"
	StageBrandName          Stage = "BRAND_NAME"
	StageTagline            Stage = "TAGLINE"
	StageToneOfVoice        Stage = "TONE_OF_VOICE"
	StageLogoDesignConcepts Stage = "LOGO_DESIGN_CONCEPTS"
	StageColorPalette       Stage = "COLOR_PALETTE"
	StageTypography         Stage = "TYPOGRAPHY"
	StageBrandingSummary    Stage = "BRANDING_SUMMARY"
)

// Phase 5: Product Development
const (
	StageFullProductDescription Stage = "FULL_PRODUCT_DESCRIPTION"
	StageFeaturePrioritization  Stage = "FEATURE_PRIORITIZATION"
	StageProductRoadmap         Stage = "PRODUCT_ROADMAP"
	StageMVPScope               Stage = "MVP_SCOPE"
	StageMVPUserFlow            Stage = "MVP_USER_FLOW"
	StageTechStack              Stage = "TECH_STACK"
	StageQAPlan                 Stage = "QA_PLAN"
	StageProductDevSummary      Stage = "PRODUCT_DEV_SUMMARY"
)

// Phase 6: Marketing & Sales Strategy
const (
	StageMarketingObjectives  Stage = "MARKETING_OBJECTIVES"
	StageKPIs                 Stage = "KPIS"
	StageContentMarketing     Stage = "CONTENT_MARKETING"
	StageSocialMediaMarketing Stage = "SOCIAL_MEDIA_MARKETING"
	StagePaidAdvertising      Stage = "PAID_ADVERTISING"
	StageSalesProcess         Stage = "SALES_PROCESS"
	StagePricingStrategy      Stage = "PRICING_STRATEGY"
	StageLaunchCampaign       Stage = "LAUNCH_CAMPAIGN"
	StageMarketingSummary     Stage = "MARKETING_SUMMARY"
)

// Phase 7: Organization, Operations & Financials
const (
	StageFoundingTeam        Stage = "FOUNDING_TEAM"
	StageHiringPlan          Stage = "HIRING_PLAN"
	StageLegalStructure      Stage = "LEGAL_STRUCTURE"
	StageIPStrategy          Stage = "IP_STRATEGY"
	StageKeyMilestones       Stage = "KEY_MILESTONES"
	StageStartupCosts        Stage = "STARTUP_COSTS"
	StageBurnRate            Stage = "BURN_RATE"
	StageRevenueForecast     Stage = "REVENUE_FORECAST"
	StageOrganizationSummary Stage = "ORGANIZATION_SUMMARY"
)

// Phase 8: Final Outputs & Fundraising
const (
	StageFundraisingAsk      Stage = "FUNDRAISING_ASK"
	StageUseOfFunds          Stage = "USE_OF_FUNDS"
	StagePitchDeckOutline    Stage = "PITCH_DECK_OUTLINE"
	StageOnePager            Stage = "ONE_PAGER"
	StageExitStrategy        Stage = "EXIT_STRATEGY"
	StageFinalOutputsSummary Stage = "FINAL_OUTPUTS_SUMMARY"
)

// PhaseOrder lists the eight phases in journey order.
var PhaseOrder = []Phase{
	PhaseCoreConcept,
	PhaseMarketAnalysis,
	PhaseBusinessModeling,
	PhaseBranding,
	PhaseProductDevelopment,
	PhaseMarketingSales,
	PhaseOrganization,
	PhaseFinalOutputs,
}

// PhaseStages maps each phase to its content stages in journey order.
// Every phase ends with a summary stage; phase 1 additionally contains
// EXECUTIVE_SUMMARY and VALIDATION_SUMMARY mid-phase, which classify as
// summary stages by the suffix rule.
var PhaseStages = map[Phase][]Stage{
	PhaseCoreConcept: {
		StageIdeaTitle, StageElevatorPitch, StageExecutiveSummary,
		StageProblemDescription, StageProblemMagnitude, StageCurrentSolutions,
		StageCustomerSegments, StageEarlyAdopterPersona,
		StageProductDescription, StageHowItWorks,
		StageUVPStatement, StageUnfairAdvantage,
		StageValidationSummary, StageBusinessGoals, StageCoreConceptSummary,
	},
	PhaseMarketAnalysis: {
		StagePESTELAnalysis, StageTAMAnalysis, StageSAMAnalysis, StageSOMAnalysis,
		StageCompetitorIdentification, StageCompetitorAnalysis,
		StageSWOTAnalysis, StageRiskAnalysis, StageMarketAnalysisSummary,
	},
	PhaseBusinessModeling: {
		StageBMCCustomerSegments, StageBMCValuePropositions, StageBMCChannels,
		StageBMCCustomerRelationships, StageBMCRevenueStreams,
		StageBMCKeyResources, StageBMCKeyActivities, StageBMCKeyPartnerships,
		StageBMCCostStructure, StageBusinessModelingSummary,
	},
	PhaseBranding: {
		StageBrandVision, StageBrandMission, StageCoreValues, StageBrandPersonality,
		StageBrandName, StageTagline, StageToneOfVoice,
		StageLogoDesignConcepts, StageColorPalette, StageTypography,
		StageBrandingSummary,
	},
	PhaseProductDevelopment: {
		StageFullProductDescription, StageFeaturePrioritization, StageProductRoadmap,
		StageMVPScope, StageMVPUserFlow, StageTechStack, StageQAPlan,
		StageProductDevSummary,
	},
	PhaseMarketingSales: {
		StageMarketingObjectives, StageKPIs,
		StageContentMarketing, StageSocialMediaMarketing, StagePaidAdvertising,
		StageSalesProcess, StagePricingStrategy, StageLaunchCampaign,
		StageMarketingSummary,
	},
	PhaseOrganization: {
		StageFoundingTeam, StageHiringPlan,
		StageLegalStructure, StageIPStrategy, StageKeyMilestones,
		StageStartupCosts, StageBurnRate, StageRevenueForecast,
		StageOrganizationSummary,
	},
	PhaseFinalOutputs: {
		StageFundraisingAsk, StageUseOfFunds,
		StagePitchDeckOutline, StageOnePager, StageExitStrategy,
		StageFinalOutputsSummary,
	},
}

// autoGenerated is the fixed allow-list of stages whose content is produced
// by the generation service without user text entry. Summary stages are
// auto-generated as well (see IsAutoGenerated).
var autoGenerated = map[Stage]bool{
	StageBMCValuePropositions: true,
	StageBMCKeyActivities:     true,
	StageBMCKeyResources:      true,
	StageBMCCostStructure:     true,
}

// All is the complete ordered catalog: the initial marker, every phase's
// stages in order, and the terminal COMPLETE marker.
var All = buildAll()

var (
	ordinals = make(map[Stage]int, len(All))
	phaseOf  = make(map[Stage]Phase, len(All))
)

func buildAll() []Stage {
	stages := []Stage{StageInitial}
	for _, p := range PhaseOrder {
		stages = append(stages, PhaseStages[p]...)
	}
	return append(stages, StageComplete)
}

func init() {
	for i, s := range All {
		ordinals[s] = i
	}
	for _, p := range PhaseOrder {
		for _, s := range PhaseStages[p] {
			phaseOf[s] = p
		}
	}
}

// Known reports whether s is a member of the catalog.
func Known(s Stage) bool {
	_, ok := ordinals[s]
	return ok
}

// Ordinal returns the position of s in the catalog's total order.
// An unrecognized stage is a programming error, not a user-facing condition.
func Ordinal(s Stage) int {
	i, ok := ordinals[s]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown stage %q", s))
	}
	return i
}

// Next returns the stage immediately following s, or false if s is last.
func Next(s Stage) (Stage, bool) {
	i := Ordinal(s)
	if i+1 >= len(All) {
		return "", false
	}
	return All[i+1], true
}

// DataKey returns the business-plan data field a stage writes to, or false
// for the structural INITIAL and COMPLETE markers. Keys are the lowercase
// form of the stage name (IDEA_TITLE -> idea_title).
func DataKey(s Stage) (string, bool) {
	if s == StageInitial || s == StageComplete {
		return "", false
	}
	Ordinal(s) // membership check
	return strings.ToLower(string(s)), true
}

// IsSummary reports whether s is a summary stage: its name ends in _SUMMARY,
// or it is the terminal COMPLETE marker.
func IsSummary(s Stage) bool {
	return strings.HasSuffix(string(s), "_SUMMARY") || s == StageComplete
}

// IsAutoGenerated reports whether s is filled by the generation service
// instead of user input.
func IsAutoGenerated(s Stage) bool {
	return autoGenerated[s] || IsSummary(s)
}

// PhaseOf returns the phase containing s, or "" for the structural markers.
func PhaseOf(s Stage) Phase {
	return phaseOf[s]
}

// FirstContent returns the first real content stage, immediately after the
// initial marker. Restart resets the journey here.
func FirstContent() Stage {
	return All[1]
}

// Progress returns journey completion as a fraction in [0, 1] based on the
// ordinal of the current stage.
func Progress(s Stage) float64 {
	return float64(Ordinal(s)) / float64(len(All)-1)
}
