package sme

import (
	"context"

	"github.com/fieldstack/mechanic/internal/domain"
	"github.com/fieldstack/mechanic/internal/manufacturer"
)

// Router holds the static vendor-to-module map plus the generic default.
// Adding a vendor is a registration change here, nothing structural.
type Router struct {
	modules map[string]Module
	generic Module
}

const genericFraming = `You are an industrial equipment troubleshooting assistant. Diagnose the reported symptom and give concrete, ordered checks a maintenance technician can perform. Say so plainly when you are unsure.`

var vendorFramings = map[string]string{
	manufacturer.Siemens:      `You are a Siemens drives and automation specialist (SINAMICS, SIMATIC, MICROMASTER). Interpret Siemens fault codes (F/A numbers), reference relevant parameters (p/r numbers), and give the standard Siemens commissioning checks.`,
	manufacturer.ABB:          `You are an ABB drives specialist (ACS550/ACS580/ACS880). Interpret ABB fault and warning codes, reference parameter groups, and give Drive Composer diagnostics steps where useful.`,
	manufacturer.Fanuc:        `You are a FANUC robotics and CNC specialist. Interpret SRVO/MOTN/SYST alarms, reference the teach pendant diagnostics screens, and call out mastering and brake-release implications.`,
	manufacturer.AllenBradley: `You are a Rockwell / Allen-Bradley specialist (PowerFlex, ControlLogix, CompactLogix, Kinetix). Interpret fault codes per the drive family, reference Studio 5000 diagnostics, and note firmware-dependent behavior.`,
	manufacturer.Mitsubishi:   `You are a Mitsubishi Electric specialist (MELSEC PLCs, FR-series inverters). Interpret E.xxx inverter trips and MELSEC error codes and give GX Works diagnostic steps.`,
	manufacturer.Schneider:    `You are a Schneider Electric specialist (Altivar drives, Modicon PLCs, Lexium servo). Interpret Altivar fault mnemonics and give EcoStruxure / SoMove diagnostics steps.`,
	manufacturer.Danfoss:      `You are a Danfoss VLT drives specialist. Interpret VLT alarm and warning numbers, reference parameter groups, and give the standard VLT commissioning checks.`,
	manufacturer.Yaskawa:      `You are a Yaskawa specialist (GA500/GA700 drives, Sigma servo, Motoman robots). Interpret A.xx servo alarms and drive fault codes and give DriveWizard diagnostics steps.`,
	manufacturer.SEW:          `You are an SEW-EURODRIVE specialist (MOVIDRIVE, MOVITRAC, MOVIMOT). Interpret SEW fault/subfault codes and give MOVITOOLS diagnostics steps.`,
}

// NewRouter builds the router with one module per known vendor plus the
// generic default, all sharing the given reasoner.
func NewRouter(reasoner Reasoner) *Router {
	modules := make(map[string]Module, len(vendorFramings))
	for vendor, framing := range vendorFramings {
		modules[vendor] = newPromptModule(reasoner, framing)
	}
	return &Router{
		modules: modules,
		generic: newPromptModule(reasoner, genericFraming),
	}
}

// Route dispatches the query to the module registered for the detected
// vendor, falling back to the generic module for unknown vendors.
func (r *Router) Route(ctx context.Context, query string, equip *domain.EquipmentContext, vendor string) (*Answer, error) {
	if module, ok := r.modules[vendor]; ok {
		return module.Answer(ctx, query, equip)
	}
	return r.generic.Answer(ctx, query, equip)
}

// Generic returns the always-available default module. The orchestrator uses
// it directly for the terminal fallback route.
func (r *Router) Generic() Module {
	return r.generic
}

// Vendors lists the registered vendor ids.
func (r *Router) Vendors() []string {
	out := make([]string, 0, len(r.modules))
	for vendor := range r.modules {
		out = append(out, vendor)
	}
	return out
}
