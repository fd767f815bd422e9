// Package app assembles the use-case services behind the command bus.
package app

import (
	"context"

	"parcours/internal/bus"
	confirmation "parcours/internal/confirmation/service"
	defense "parcours/internal/defense/service"
	diffusion "parcours/internal/diffusion/service"
	doctorate "parcours/internal/doctorate/service"
	jury "parcours/internal/jury/service"
	supervision "parcours/internal/supervision/service"
	training "parcours/internal/training/service"
)

// Services are the command handlers of every workflow stage.
type Services struct {
	Doctorate    *doctorate.Service
	Supervision  *supervision.Service
	Confirmation *confirmation.Service
	Training     *training.Service
	Jury         *jury.Service
	Defense      *defense.Service
	Diffusion    *diffusion.Service
}

// Done is the reply of commands that return nothing.
type Done struct{}

func noResult[C any](handler func(context.Context, C) error) func(context.Context, C) (Done, error) {
	return func(ctx context.Context, cmd C) (Done, error) {
		return Done{}, handler(ctx, cmd)
	}
}

// RegisterCommands binds every command to its bus name.
func RegisterCommands(b *bus.Bus, s Services) {
	bus.Register(b, "doctorate.initialize", s.Doctorate.InitializeDoctorate)
	bus.Register(b, "doctorate.modify_project", s.Doctorate.ModifyProject)
	bus.Register(b, "doctorate.modify_funding", s.Doctorate.ModifyFunding)
	bus.Register(b, "doctorate.modify_cotutelle", s.Doctorate.ModifyCotutelle)
	bus.Register(b, "doctorate.modify_previous_research", s.Doctorate.ModifyPreviousResearch)
	bus.Register(b, "doctorate.modify_defense_info", s.Doctorate.ModifyDefenseInfo)
	bus.Register(b, "doctorate.lock_diploma", s.Doctorate.LockDiploma)
	bus.Register(b, "doctorate.send_message", noResult(s.Doctorate.SendMessage))

	bus.Register(b, "supervision.add_member", s.Supervision.AddMember)
	bus.Register(b, "supervision.remove_member", s.Supervision.RemoveMember)
	bus.Register(b, "supervision.modify_external_member", s.Supervision.ModifyExternalMember)
	bus.Register(b, "supervision.designate_reference_promoter", s.Supervision.DesignateReferencePromoter)
	bus.Register(b, "supervision.request_signatures", s.Supervision.RequestSignatures)
	bus.Register(b, "supervision.approve", s.Supervision.ApproveProposition)
	bus.Register(b, "supervision.approve_by_pdf", s.Supervision.ApprovePropositionByPDF)
	bus.Register(b, "supervision.refuse", s.Supervision.RefuseProposition)
	bus.Register(b, "supervision.resend_invitation", s.Supervision.ResendInvitation)

	bus.Register(b, "confirmation.submit", s.Confirmation.SubmitConfirmation)
	bus.Register(b, "confirmation.complete_by_supervisor", s.Confirmation.CompleteBySupervisor)
	bus.Register(b, "confirmation.modify_by_cdd", s.Confirmation.ModifyByCDD)
	bus.Register(b, "confirmation.request_extension", s.Confirmation.RequestExtension)
	bus.Register(b, "confirmation.record_cdd_opinion", s.Confirmation.RecordCDDOpinion)
	bus.Register(b, "confirmation.upload_renewal_opinion", s.Confirmation.UploadRenewalOpinion)
	bus.Register(b, "confirmation.record_success", s.Confirmation.RecordSuccess)
	bus.Register(b, "confirmation.record_failure", s.Confirmation.RecordFailure)
	bus.Register(b, "confirmation.record_retry", s.Confirmation.RecordRetry)

	bus.Register(b, "training.create_activity", s.Training.CreateActivity)
	bus.Register(b, "training.modify_activity", s.Training.ModifyActivity)
	bus.Register(b, "training.delete_activity", noResult(s.Training.DeleteActivity))
	bus.Register(b, "training.submit_activities", s.Training.SubmitActivities)
	bus.Register(b, "training.accept_activities", s.Training.AcceptActivities)
	bus.Register(b, "training.refuse_activity", s.Training.RefuseActivity)
	bus.Register(b, "training.revert_activity", s.Training.RevertActivity)
	bus.Register(b, "training.record_supervisor_opinion", s.Training.RecordSupervisorOpinion)
	bus.Register(b, "training.enroll", s.Training.Enroll)
	bus.Register(b, "training.unenroll", s.Training.Unenroll)
	bus.Register(b, "training.reenroll", s.Training.Reenroll)
	bus.Register(b, "training.encode_mark", s.Training.EncodeMark)
	bus.Register(b, "training.correct_mark", s.Training.CorrectMark)

	bus.Register(b, "jury.modify", s.Jury.ModifyJury)
	bus.Register(b, "jury.add_member", s.Jury.AddMember)
	bus.Register(b, "jury.modify_member", s.Jury.ModifyMember)
	bus.Register(b, "jury.remove_member", s.Jury.RemoveMember)
	bus.Register(b, "jury.change_role", s.Jury.ChangeRole)
	bus.Register(b, "jury.request_signatures", s.Jury.RequestSignatures)
	bus.Register(b, "jury.resend_invitation", s.Jury.ResendInvitation)
	bus.Register(b, "jury.approve", s.Jury.Approve)
	bus.Register(b, "jury.approve_by_pdf", s.Jury.ApproveByPDF)
	bus.Register(b, "jury.refuse", s.Jury.Refuse)
	bus.Register(b, "jury.cdd_approve", s.Jury.CDDApprove)
	bus.Register(b, "jury.cdd_refuse", s.Jury.CDDRefuse)
	bus.Register(b, "jury.adre_approve", s.Jury.ADREApprove)
	bus.Register(b, "jury.adre_refuse", s.Jury.ADRERefuse)

	bus.Register(b, "private_defense.submit", s.Defense.SubmitPrivateDefense)
	bus.Register(b, "private_defense.authorize", s.Defense.AuthorizePrivateDefense)
	bus.Register(b, "private_defense.submit_minutes", s.Defense.SubmitPrivateDefenseMinutes)
	bus.Register(b, "private_defense.record_success", s.Defense.RecordPrivateDefenseSuccess)
	bus.Register(b, "private_defense.record_failure", s.Defense.RecordPrivateDefenseFailure)
	bus.Register(b, "private_defense.record_retry", s.Defense.RecordPrivateDefenseRetry)
	bus.Register(b, "admissibility.submit", s.Defense.SubmitAdmissibility)
	bus.Register(b, "admissibility.submit_minutes", s.Defense.SubmitAdmissibilityMinutes)
	bus.Register(b, "admissibility.record_decision", s.Defense.RecordAdmissibilityDecision)
	bus.Register(b, "public_defense.modify", s.Defense.ModifyPublicDefense)
	bus.Register(b, "public_defense.submit", s.Defense.SubmitPublicDefense)
	bus.Register(b, "public_defense.authorize", s.Defense.AuthorizePublicDefense)
	bus.Register(b, "public_defense.submit_minutes", s.Defense.SubmitPublicDefenseMinutes)
	bus.Register(b, "public_defense.record_success", s.Defense.RecordDefenseSuccess)

	bus.Register(b, "diffusion.encode_form", s.Diffusion.EncodeForm)
	bus.Register(b, "diffusion.submit_form", s.Diffusion.SubmitForm)
	bus.Register(b, "diffusion.promoter_approve", s.Diffusion.PromoterApprove)
	bus.Register(b, "diffusion.promoter_refuse", s.Diffusion.PromoterRefuse)
	bus.Register(b, "diffusion.adre_approve", s.Diffusion.ADREApprove)
	bus.Register(b, "diffusion.adre_refuse", s.Diffusion.ADRERefuse)
	bus.Register(b, "diffusion.sceb_approve", s.Diffusion.SCEBApprove)
	bus.Register(b, "diffusion.sceb_refuse", s.Diffusion.SCEBRefuse)
}
