package transfer

import (
	"context"
	"fmt"

	"github.com/roach88/quotesync/internal/engine"
	"github.com/roach88/quotesync/internal/model"
)

var samples = []model.Record{
	{Text: "The only way to do great work is to love what you do.", Author: "Steve Jobs", Category: "motivation"},
	{Text: "Life is what happens when you're busy making other plans.", Author: "John Lennon", Category: "life"},
	{Text: "The unexamined life is not worth living.", Author: "Socrates", Category: "philosophy"},
	{Text: "In the middle of difficulty lies opportunity.", Author: "Albert Einstein", Category: "wisdom"},
	{Text: "Simplicity is the ultimate sophistication.", Author: "Leonardo da Vinci", Category: "design"},
	{Text: "Well done is better than well said.", Author: "Benjamin Franklin", Category: "motivation"},
	{Text: "Imagination is more important than knowledge.", Author: "Albert Einstein", Category: "wisdom"},
	{Text: "I think, therefore I am.", Author: "René Descartes", Category: "philosophy"},
}

// Samples returns a copy of the built-in quote set.
func Samples() []model.Record {
	return model.Clone(samples)
}

// LoadSamples appends every sample whose exact key is absent and registers
// the sample categories. It returns how many quotes were added.
func LoadSamples(ctx context.Context, store engine.LocalStore, cats engine.CategoryRegistry) (int, error) {
	added := 0
	err := store.Update(ctx, func(local []model.Record) ([]model.Record, error) {
		var out []model.Record
		out, added = appendAbsent(local, samples)
		return out, nil
	})
	if err != nil {
		return 0, fmt.Errorf("load samples: %w", err)
	}
	if added == 0 {
		return 0, nil
	}

	if _, err := register(ctx, cats, model.Categories(samples)); err != nil {
		return added, fmt.Errorf("load samples: %w", err)
	}
	return added, nil
}
