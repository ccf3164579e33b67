package analysis

const (
	taskFactCheck = "fact_check"
	taskSummarize = "summarize"
	taskKeyPoints = "key_points"
	taskQuestion  = "question"
)

const factCheckPrompt = `You are fact-checking a video transcript. The transcript is split into
labelled chunks; every line starts with its [MM:SS-MM:SS] time range. Check all
chunks, not only the first one.

For every verifiable factual claim choose exactly one status:
- TRUE: verified with complete certainty against reliable sources
- FALSE: provably wrong according to reliable sources
- SKIP: anything you cannot verify with complete certainty

Rules:
1. Cite only real, verifiable references (journals, government data, official
   records, standards bodies, archives). Never invent a reference.
2. Do not use news sites, blogs, social media or promotional material.
3. Always SKIP recent events, predictions, personal experiences and
   unverifiable statistics.
4. Copy the timestamp and time range of the line the claim was made in.
5. When in doubt, SKIP.

Respond with JSON only, in this shape:
{
  "results": [
    {
      "timestamp": "MM:SS",
      "timestamp_range": "MM:SS-MM:SS",
      "claim": "the exact claim from the video",
      "status": "TRUE | FALSE | SKIP",
      "explanation": "why this status was chosen",
      "references": ["source with an identifier such as a DOI or ISBN"]
    }
  ]
}`

const summarizePrompt = `Summarise the following video transcript. Respond with JSON only, in this shape:
{
  "brief_overview": "two or three sentences",
  "detailed_summary": {
    "introduction": "how the video opens",
    "main_content": "the core content and arguments",
    "conclusion": "how it ends and the final takeaways"
  },
  "topics_covered": ["topic"],
  "target_audience": "who the video is for",
  "key_takeaways": ["takeaway"]
}

Transcript:`

const keyPointsPrompt = `Extract the key points of the following video transcript. Respond with JSON only, in this shape:
{
  "main_points": [
    {
      "timestamp": "MM:SS",
      "point": "the point made",
      "details": "context or explanation",
      "importance": "high | medium | low"
    }
  ],
  "themes": ["theme"],
  "arguments": [
    {"claim": "argument made", "supporting_points": ["support"]}
  ]
}

Transcript:`

const questionPrompt = "Using this video transcript, answer the following question:"
