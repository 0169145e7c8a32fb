package prompt

// Fixed templates for the built-in flows. The persona and instruction text
// is set once per flow; callers supply only the data fields.

// Readiness renders the athlete readiness assessment prompt over a window
// of sensor samples.
var Readiness = &Template{
	Name: "assess-readiness",
	System: "You are an AI assistant specializing in assessing athlete readiness " +
		"based on sensor data.",
	Intro: `Analyze the provided sensor data to generate readiness scores for the athlete.
Consider the following factors for each score:

- Fitness Score: Overall physical fitness level based on heart rate, O2 saturation, and energy levels.
- Stamina Score: Endurance and ability to sustain physical activity.
- Strength Score: Physical strength and power.
- Reflex Score: Reaction time and agility.
- Neural Score: Cognitive function and mental acuity.
- Stress Score: Physiological stress level.

Provide the scores as numbers between 0 and 100, where higher scores indicate better readiness.
`,
	Fields: []FieldSpec{
		{Key: "athleteId", Label: "Athlete"},
	},
	Samples: &SampleBlock{Key: "sensorData", Heading: "Sensor Data:"},
	Outro: `Respond with a single JSON object containing exactly these numeric fields:
fitnessScore, staminaScore, strengthScore, reflexScore, neuralScore, stressScore.
Do not include any other text.`,
}

// InjuryRisk renders the injury-risk prediction prompt over one sample.
var InjuryRisk = &Template{
	Name: "predict-injury-risk",
	System: "You are an AI expert in athlete performance analysis and injury " +
		"risk prediction.",
	Intro: `Based on the provided sensor data, calculate performance scores and predict potential injury risks.

Sensor Data:`,
	Fields: []FieldSpec{
		{Key: "heartrate", Label: "Heart Rate"},
		{Key: "o2", Label: "Oxygen Saturation"},
		{Key: "emg", Label: "EMG"},
		{Key: "balance", Label: "Balance"},
		{Key: "gait", Label: "Gait"},
		{Key: "energy", Label: "Energy"},
		{Key: "AccX", Label: "Acceleration X"},
		{Key: "AccY", Label: "Acceleration Y"},
		{Key: "AccZ", Label: "Acceleration Z"},
		{Key: "GyroX", Label: "Gyroscope X"},
		{Key: "GyroY", Label: "Gyroscope Y"},
		{Key: "GyroZ", Label: "Gyroscope Z"},
	},
	Outro: `Based on the data, determine:
- fitnessScore: An overall fitness score (0-100).
- staminaScore: A stamina score (0-100).
- strengthScore: A strength score (0-100).
- reflexScore: A reflex score (0-100).
- neuralScore: A neural score (0-100).
- stressScore: A stress score (0-100).
- injuryRiskPercent: The overall injury risk percentage (0-100).
- predictedInjuryPart: The most likely body part to be injured (e.g., knee, ankle, shoulder).

Respond with a single JSON object containing exactly those fields and no other text.`,
}

// Chat renders the assistant conversation prompt. The history is appended
// as a transcript; there are no data fields.
var Chat = &Template{
	Name: "chat",
	System: `You are a helpful AI assistant named "Athlete Sentinel Assistant". Your role is to help users understand their athletic performance data, provide training advice, and assist with injury prevention. Your responses should be concise, informative, and encouraging. Always maintain a professional and supportive tone.`,
}

// Report renders the performance report prompt over a result history.
var Report = &Template{
	Name: "performance-report",
	System: "You are a sports-science writer producing plain-language " +
		"performance summaries for coaches and physiotherapists.",
	Intro: `Write a short performance report for the athlete below, covering the requested
time range. Summarize trends in the readiness scores, call out any concerning
injury-risk readings, and close with two or three practical recommendations.
`,
	Fields: []FieldSpec{
		{Key: "athleteId", Label: "Athlete"},
		{Key: "timeRange", Label: "Time Range"},
		{Key: "resultSummary", Label: "Recorded Results", Optional: true},
	},
	Outro: "Respond with the report text only. Do not use JSON.",
}
