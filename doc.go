// Package taskfn runs "virtual functions": functions that are declared with a signature and a
// doc string, and whose body is supplied at call time by a language model.
//
// # Overview
//
// A Task call is a single sequential pipeline:
//
//	Binding → InputValidating → ContextBuilding → Dispatch → Normalizing → OutputCoercing → Done
//
// Arguments are bound to the declared parameters and coerced to their types (see package
// typedesc). A Request is built with the stringified arguments, the return type, the doc text
// and a snapshot of every tool in the Registry. The Client returns raw text, which is stripped
// of markdown fences, parsed as JSON when possible and coerced to the declared return type.
// Any failure ends the call; nothing is retried.
//
// # Key concepts
//
//   - Tools are descriptive context only. DeclareTool registers a function's signature so the
//     model can read about it; the model's answer is never executed as a tool call.
//   - Strict by default: a record that cannot be constructed fails the call. WithBestEffort
//     restores the lenient behavior of returning such values unchanged.
//   - Errors are typed: BindingError, InputTypeError, OutputTypeError, ProviderError.
//
// # Example
//
//	item := typedesc.RecordOf("GroceryItem",
//	    typedesc.Field("name", typedesc.String()),
//	    typedesc.Field("weight_kg", typedesc.Float()),
//	    typedesc.OptionalField("price", typedesc.Float()),
//	)
//	p, err := taskfn.NewPipeline(client, taskfn.NewRegistry())
//	if err != nil { ... }
//	categorise, err := taskfn.NewTask(p, taskfn.Signature{
//	    Name:    "categorise",
//	    Doc:     "For every item, find items that are in the same category as category arg",
//	    Params:  []taskfn.Param{taskfn.Required("items", typedesc.SequenceOf(item)), taskfn.Required("category", typedesc.String())},
//	    Returns: typedesc.SequenceOf(item),
//	})
//	if err != nil { ... }
//	fruits, err := taskfn.Invoke[[]GroceryItem](ctx, categorise, items, "fruits")
package taskfn
