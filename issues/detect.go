package issues

import (
	"fmt"
	"math/rand"

	"github.com/fixitnow/fixitnow-api/models"
)

// DetectCategory guesses the category of an issue photo. There is no
// model behind it, the answer is a random category with a confidence
// between 80% and 99%.
func DetectCategory() models.CategoryDetection {
	return models.CategoryDetection{
		Category:   models.Categories[rand.Intn(len(models.Categories))],
		Confidence: fmt.Sprintf("%d%%", rand.Intn(20)+80),
		Message:    "AI detection successful (Mock)",
	}
}
