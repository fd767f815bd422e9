package notification

import id "parcours/pkg/domain"

// Template names of the queued messages.
const (
	TemplateSignatureInvitation       = "parcours-doctoral-invitation-signature"
	TemplateSupervisionRefused        = "parcours-doctoral-refus-groupe-supervision"
	TemplateSupervisionApproved       = "parcours-doctoral-approbation-groupe-supervision"
	TemplateConfirmationSubmitted     = "epreuve-confirmation-soumise"
	TemplateConfirmationResubmitted   = "epreuve-confirmation-resoumise"
	TemplateConfirmationSubmittedADRE = "epreuve-confirmation-soumise-adre"
	TemplateExtensionRequest          = "epreuve-confirmation-demande-prolongation"
	TemplateManagerMessage            = "parcours-doctoral-message-gestionnaire"
	TemplateActivitiesSubmitted       = "formation-activites-soumises"
	TemplateActivityReviewed          = "formation-activite-evaluee"
	TemplateMarkEncoded               = "formation-note-encodee"
	TemplateUnenrollment              = "formation-desinscription-evaluation"
	TemplateJuryInvitation            = "jury-invitation-signature"
	TemplateJuryRefused               = "jury-refus-membre"
	TemplateJuryDecision              = "jury-decision-gestionnaire"
	TemplateThesisInvitation          = "autorisation-diffusion-these-invitation"
	TemplateThesisRefused             = "autorisation-diffusion-these-refus"
	TemplateThesisDistributed         = "autorisation-diffusion-these-validee"
	TemplatePrivateDefenseSubmited    = "defense-privee-soumise"
	TemplateAdmissibilitySubmitted    = "recevabilite-soumise"
)

// Email is one queued email.
type Email struct {
	Template string            `json:"template"`
	To       []Recipient       `json:"to"`
	CC       []Recipient       `json:"cc,omitempty"`
	Tokens   map[string]string `json:"tokens"`
}

// Web is one queued in-app notification.
type Web struct {
	Template  string            `json:"template"`
	Matricule id.Matricule      `json:"matricule"`
	Tokens    map[string]string `json:"tokens"`
}
