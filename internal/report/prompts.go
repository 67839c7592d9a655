package report

import "strings"

// Reply text used by the dialogue. Kept together so the wording can be
// reviewed (and eventually localized) in one place.
const (
	replyCancelled = "Report cancelled."

	replyAskLink = "Thank you for starting the reporting process. " +
		"Say `help` at any time for more information.\n\n" +
		"Please copy paste the link to the message you want to report.\n" +
		"You can obtain this link by right-clicking the message and clicking `Copy Message Link`."

	replyBadLink = "I'm sorry, I couldn't read that link. Please try again or say `cancel` to cancel."

	replyGuildNotFound = "I cannot accept reports of messages from guilds that I'm not in. " +
		"Please have the guild owner add me to the guild and try again."

	replyChannelNotFound = "It seems this channel was deleted or never existed. " +
		"Please try again or say `cancel` to cancel."

	replyMessageNotFound = "It seems this message was deleted or never existed. " +
		"Please try again or say `cancel` to cancel."

	replyLookupFailed = "Something went wrong while looking up that message. " +
		"Please try again or say `cancel` to cancel."

	replyAskAge = "We are sorry to hear that you received a concerning message. " +
		"In order to properly prioritize your report, will you let us know if you are under the age of 18?\n" +
		"Please respond `" + UnderageKeyword + "` or `" + OverageKeyword + "`."

	replyAskBlock = "Thanks for letting us know! We will contact you when we have reviewed your case. " +
		"In the meantime, would you like to block the user from this conversation? " +
		"Reply `" + BlockKeyword + "` or `" + NoBlockKeyword + "`."

	replySubmitted = "Your report has been successfully submitted. " +
		"Our moderation team will review it shortly."

	replyBlockedAndSubmitted = "We have blocked the reported user and prevented the account from any future interactions with you.\n" +
		"Your report has been successfully submitted."

	replyMinorSupport = "Thank you so much for letting us know. You are so brave. " +
		"For your safety, we've prevented this user from contacting you again."

	// solicitationResources is replayed on every message while the session is
	// in the child-solicitation state, until the reporter says cancel.
	solicitationResources = "Just so you know, it is NOT your fault if you experienced something uncomfortable " +
		"or did something you think you maybe shouldn't have done. The fault is ALWAYS on the adults.\n" +
		"Here are some educational and emotional resources for you while we review your case:\n" +
		"https://www.missingkids.org/gethelpnow/csam-resources\n" +
		"https://www.pacer.org/cmh/\n" +
		"https://childmind.org/"
)

// HelpText is the usage reply for the `help` keyword, sent by the coordinator
// outside of any session.
const HelpText = "Use the `report` command to begin the reporting process.\n" +
	"Use the `cancel` command to cancel the report process."

// categoryPrompt renders the preview of the identified message followed by
// the closed category menu.
func categoryPrompt(author, text string) []string {
	var menu strings.Builder
	menu.WriteString("If this is not the right message, type `cancel` and restart the reporting process.\n")
	menu.WriteString("Otherwise, let me know which of the following abuse types this message is:\n")
	for _, kw := range CategoryMenu {
		menu.WriteString("`" + kw + "`\n")
	}
	return []string{
		"I found this message:",
		"```" + author + ": " + text + "```",
		strings.TrimRight(menu.String(), "\n"),
	}
}
