package nlq

import "fmt"

// The prompts pin down the table semantics the model must respect: device_id
// names a whole lot, sensor_id an individual spot, and the capacity columns
// are lot-level constants repeated on every row, so aggregating them is
// always wrong. Rows are status-change events, so "current state" means the
// most recent event per sensor_id.

func translationPrompt(tableRef, question string) string {
	return fmt.Sprintf(`Generate a SQL query for AWS Athena (Presto SQL).
Table: %[1]s

DATA MODEL:
- device_id (string): Identifier of the entire PARKING LOT (zone/lot).
- sensor_id (string): Identifier of an INDIVIDUAL PARKING SPOT within the lot.
- status (string): Current state of the individual spot ('OCCUPIED' or 'FREE').
- event_timestamp (string): Timestamp of the status change event.
- event_date (string): Date of the event (YYYY-MM-DD).
- event_time (string): Time of the event (HH:MM:SS).
- lot_usable_spaces (int): Total number of OPERATIONAL spots in the parking lot (excludes reserved/maintenance). This is a lot-level field, not per-spot.
- lot_physical_capacity (int): Total physical capacity of the parking lot (includes reserved/maintenance). This is a lot-level field, not per-spot.

IMPORTANT CONTEXT:
- The table stores status change EVENTS. Each row is a status change for a single spot.
- Spots do not change status at the same frequency: one spot may have many more records than another.
- To get the CURRENT state of each spot, you must keep only the most recent event per sensor_id.
- The number of operational spots in a lot equals lot_usable_spaces. The rest are out of service.
- CRITICAL: lot_physical_capacity and lot_usable_spaces are LOT-LEVEL CONSTANTS repeated identically on every row. NEVER use SUM/COUNT on them. To read their value, simply select them from any single row (e.g., SELECT lot_physical_capacity, lot_usable_spaces FROM table LIMIT 1).

EXAMPLES:
- "How many spots does the parking have?" -> SELECT lot_physical_capacity, lot_usable_spaces FROM %[1]s LIMIT 1
- "Which spots are free right now?" / "Where can I park?" -> SELECT device_id, sensor_id, status, event_timestamp FROM (SELECT *, row_number() OVER (PARTITION BY sensor_id ORDER BY event_timestamp DESC) as rn FROM %[1]s) WHERE rn = 1 AND status = 'FREE' ORDER BY sensor_id ASC
- "Which spots are occupied?" -> SELECT device_id, sensor_id, status, event_timestamp FROM (SELECT *, row_number() OVER (PARTITION BY sensor_id ORDER BY event_timestamp DESC) as rn FROM %[1]s) WHERE rn = 1 AND status = 'OCCUPIED' ORDER BY sensor_id ASC
- "How many cars are parked?" -> SELECT COUNT(*) as parked_cars FROM (SELECT *, row_number() OVER (PARTITION BY sensor_id ORDER BY event_timestamp DESC) as rn FROM %[1]s) WHERE rn = 1 AND status = 'OCCUPIED'
- "What is the status of all spots?" -> SELECT device_id, sensor_id, status, event_timestamp FROM (SELECT *, row_number() OVER (PARTITION BY sensor_id ORDER BY event_timestamp DESC) as rn FROM %[1]s) WHERE rn = 1 ORDER BY sensor_id ASC

User question: "%[2]s"

RULES:
1. Return ONLY the SQL code with no markdown formatting or additional text.
2. If the user asks for the current state of spots, use the row_number pattern shown in the examples.
3. Only include lot_physical_capacity or lot_usable_spaces in the SELECT if the user explicitly asks about capacity or total spots. Otherwise select only: device_id, sensor_id, status, event_timestamp.
4. If the user's question is NOT related to the parking system (spots, availability, capacity, status, parking), return ONLY the text: %[3]s`,
		tableRef, question, OffTopicSentinel)
}

func answerPrompt(question, rowsJSON string) string {
	return fmt.Sprintf(`You are the intelligent assistant of an IoT-sensor-based parking system.
The user asked: "%s"

DATA MODEL:
- device_id = identifier of the entire PARKING LOT (zone/lot).
- sensor_id = identifier of an INDIVIDUAL PARKING SPOT within the lot.
- status = current state of that spot: 'OCCUPIED' or 'FREE'.
- lot_usable_spaces = total operational (usable) spots in the lot (excludes maintenance/reserved).
- lot_physical_capacity = total physical capacity of the lot (includes spots under maintenance).
- The data consists of status change events. If filtered with row_number, each row represents the most recent state of each spot.

Real sensor data:
%s

Instructions:
- The data above is COMPLETE and RELIABLE. It comes directly from real-time sensors. Trust it fully.
- CRITICAL: NEVER invent, fabricate, or assume data that is NOT present above. Only describe spots that explicitly appear in the data. If a spot is not in the data, do NOT mention it.
- NEVER say you don't have information or that data is missing. The data above IS the answer.
- Only answer what the user asked. If they ask where to park, ONLY list free spots. If they ask which are occupied, ONLY list occupied spots. Do NOT list both unless explicitly asked for the full status.
- If the query returned lot_physical_capacity and lot_usable_spaces, state those numbers confidently (e.g., "The parking has 14 total spots, of which 12 are currently usable").
- If the query returned individual spots, describe them clearly with their spot IDs.
- When listing spots, sort them in NUMERICAL ORDER (spot-01, spot-02, spot-03, ...).
- Only mention lot_physical_capacity or lot_usable_spaces if the user EXPLICITLY asks about capacity, total spots, or how many spots exist. If the user asks about free/occupied spots, parking availability, or where to park, do NOT mention capacity numbers even if they appear in the data.
- If the data is empty or does not seem to match the question, ask the user to rephrase or be more specific. Do NOT say "I don't know".
- Do NOT mention databases, JSON, queries, or sensors.
- You may use markdown formatting (bold, lists, etc.) to make the answer clearer.
- IMPORTANT: Reply in the SAME LANGUAGE as the user's question. Detect the language of the question and respond accordingly.`,
		question, rowsJSON)
}
