// Package model provides typed model constants with pricing for all
// supported providers.
//
// Models know their provider, which lets the agent route requests without
// separate provider configuration:
//
//	conv := agent.NewConversation(adapter, agent.WithModel(model.ClaudeSonnet4))
//
// # Cost Computation
//
// Every model can turn a usage report into dollar amounts:
//
//	cost := model.GPT5.Cost(msg.Usage)
//	fmt.Printf("spent $%.4f\n", cost.Total)
//
// Cost is computed from the full usage totals, not incrementally, so the
// same usage always produces the same cost.
//
// # Models Outside the Catalog
//
// Use Custom for fine-tuned or newly released models:
//
//	m := model.Custom("ft:gpt-5-mini:acme", cadence.ProviderOpenAI, model.Pricing{
//	    InputPerMillion:  0.30,
//	    OutputPerMillion: 1.20,
//	})
package model
