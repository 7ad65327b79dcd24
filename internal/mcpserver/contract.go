package mcpserver

// UsageContract describes the conventions LLM consumers must follow when
// creating contacts, tagging, and recording interactions.
const UsageContract = `# Tend Usage Contract

Rules for assistants working with the Tend relationship tracker.

## Tags

- A tag names a relationship circle or topic: ` + "`" + `#friends` + "`" + `, ` + "`" + `#running` + "`" + `, ` + "`" + `#work/acme` + "`" + `.
- Format: a ` + "`" + `#` + "`" + ` followed by a lowercase alphanumeric, then lowercase letters,
  digits, ` + "`" + `_` + "`" + `, ` + "`" + `/` + "`" + ` or ` + "`" + `-` + "`" + `. Uppercase input is accepted and lowercased.
- The same tag may appear on many contacts and notes; tracking settings
  (frequency) belong to one contact-tag pair, not to the tag globally.
- Inline ` + "`" + `#tags` + "`" + ` inside note content are extracted and attached automatically.

## Dates and timestamps

1. **Always send an explicit UTC offset.** ` + "`" + `2025-06-01T18:30:00+02:00` + "`" + ` is valid;
   ` + "`" + `2025-06-01T18:30:00` + "`" + ` is rejected. Never guess the user's timezone silently.
2. Interaction dates may not be in the future.
3. Backfilling is safe and encouraged: recording an older interaction never
   moves a last-contact timestamp backwards.

## Recording interactions

- Use ` + "`" + `record_interaction` + "`" + ` whenever the user mentions having talked to, met,
  called, or messaged someone — even without substantive content.
- Put whatever the user said about the conversation in ` + "`" + `content` + "`" + `; leave it
  empty when only the fact of contact is known.
- Use ` + "`" + `add_note` + "`" + ` for facts about a person that are not an interaction
  ("Maria moved to Berlin").

## Attributes

- Attribute payloads are sparse objects: ` + "`" + `{"personal": {"city": "Berlin"}}` + "`" + `.
- Only categories and fields declared in the published attribute template are
  accepted; read ` + "`" + `tend://attribute-template` + "`" + ` before writing attributes.
- Omit unknown facts entirely. Never send ` + "`" + `null` + "`" + ` values.

## Staleness

- ` + "`" + `set_tag_frequency` + "`" + ` with ` + "`" + `frequency_days` + "`" + ` (1-365) means "I want to be in
  touch with this person at least every N days through this circle".
- Call ` + "`" + `due_report` + "`" + ` when the user asks who they should reach out to.
`
