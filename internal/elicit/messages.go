package elicit

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/plantbot/internal/ingredients"
)

// Welcome is the greeting shown before the first turn.
const Welcome = "Welcome to the Lab.\n\n" +
	"I am your formulation scientist and will guide you through the chemistry of plant-based matrices.\n\n" +
	"Type 'New' to begin an experiment, or 'Add <name>' to characterize a new protein."

const (
	msgIdleHint = "Please type 'New' to start an experiment, or 'Add <name>' to characterize a new protein."

	msgAskConc = "Base selected: %s\n\nNow define the Protein Concentration (%%).\n\n" +
		"Context:\n- 2-4%%: colloidal dispersion (drinkable, milk).\n- 5-10%%: semi-solid gel network (spoonable yogurt, cheese).\n\n" +
		"Above 12%% without hydration control the mouthfeel may turn chalky."

	msgAskFat = "Concentration set.\n\nNext: Fat Content (%).\n\n" +
		"Context: fat globules disrupt the protein gel network, making it softer and creamier, " +
		"and mask the astringency of plant proteins.\n\nTarget: 0.5% (light) to 5.0% (indulgent)."

	msgAskPH = "Lipid phase defined.\n\nCritical step: Target pH.\n\n" +
		"Context: plant proteins have an isoelectric point near pH 4.5. Acidified to that point they lose charge " +
		"and aggregate, forming a gel (good for yogurt) or grit (bad for milk).\n\n- Yogurt: 4.3 - 4.6\n- Milk: 6.5 - 7.0"

	msgAskStab = "Acidity defined.\n\nFinal variable: Stabilizer Dosage (%).\n\n" +
		"Context: hydrocolloids such as pectin, starch or agar bind excess water to prevent syneresis " +
		"and raise viscosity.\n\nTypical range: 0.1% - 1.0%."

	msgDefineWHC = "Material characterization: %s\n\nEnter the Water Holding Capacity (WHC).\n\n" +
		"Context: grams of water bound by 1 g of protein. High WHC (>3.0) prevents syneresis " +
		"but can create excessive viscosity."

	msgDefineSol = "Data recorded.\n\nNext: Solubility Index (NSI %, 0-100).\n\n" +
		"Context: the share of protein that dissolves at neutral pH. Below 40% you get sedimentation and a sandy texture; " +
		"above 80% the product is smooth and emulsion-stable."

	msgSynced = "Database synchronized.\n\n%s has been characterized and integrated into the prediction model.\nType 'New' to test it."

	msgSyncedAsync = "Database synchronized.\n\n%s has been characterized. The model is retraining in the background; " +
		"formulations started now may score %s without its profile until it finishes.\nType 'New' to test it."

	msgSyncFailed = "%s has been saved to the ingredient database, but the prediction model could not be retrained. " +
		"Formulations keep scoring %s without its profile until the next successful retrain.\nType 'New' to continue."

	msgInvalidNumber  = "Input error: please provide a numeric value."
	msgUnknownProtein = "Error: %q is not in the ingredient database. Pick one of: %s, or type 'Add <name>'."
)

func msgAskProtein(table ingredients.Table) string {
	var b strings.Builder
	b.WriteString("Protocol initiated.\n\n")
	b.WriteString("First, define the matrix base. The protein source sets the isoelectric point and water absorption.\n\n")
	b.WriteString("Available substrates:\n")
	for _, name := range table.Names() {
		fmt.Fprintf(&b, "- %s: %s\n", name, table[name].Description)
	}
	b.WriteString("\nSelect a protein, or type 'Add <name>' to characterize a new material.")
	return b.String()
}

func msgOutOfRange(err error) string {
	return fmt.Sprintf("Input error: %v. Please enter another value.", err)
}
