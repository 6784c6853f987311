// Package domain holds the crop advisory model and its rule evaluators.
//
// # Knowledge Base
//
// Each supported crop has an ordered list of pest/disease records and one
// irrigation requirement. Records are read-only once loaded (see package
// knowledge); evaluators receive them through the [KnowledgeBase] interface.
//
// # Pest Matching
//
// A pest is a candidate when at least one observed symptom is an exact string
// match for one of its listed symptoms:
//
//	confidence = min(100, round(matched / len(pest.Symptoms) * 100))
//
// Candidates are sorted by descending confidence. Equal confidences keep the
// declaration order of the knowledge base.
//
// Weather-risk annotations (first match wins):
//
//	高湿 tag and current humidity > 80%   → high humidity warning
//	多雨 tag and RainNext3h > 2mm          → rain spread warning
//
// RainNext3h is reserved for providers that report short-horizon rainfall.
// QWeather does not, so the rain annotation never fires with that provider.
//
// # Irrigation Rules
//
// Evaluated in order, each appending at most one line:
//
//	1. soil moisture < min → urgent | < optimal → suggest soon | else adequate
//	2. growth stage == critical stage → keep water sufficient
//	3. rain over the first two forecast entries > 3mm → irrigation may wait
//	4. else temperature > 30°C and humidity < 50% → irrigate more often
//	5. else humidity > 85% → watch for disease while irrigating
//
// # Weather Summary
//
// The report summary looks at the whole forecast window: total rain > 5mm
// advises postponing irrigation, otherwise a maximum precipitation probability
// above 60% flags likely rain. Its window and thresholds differ from rule 3
// above; every line names the window it refers to.
package domain
