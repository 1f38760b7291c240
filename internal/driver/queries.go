package driver

const (
	UpsertPagesQuery = `
		UNWIND $pages AS p
		MERGE (n:Page {title: p.title})
		SET n.exists = p.exists,
			n.classification = p.classification,
			n.aliases = p.aliases,
			n.run_id = $run_id,
			n.updated_at = $updated_at
	`

	UpsertLinksQuery = `
		UNWIND $links AS l
		MATCH (s:Page {title: l.source})
		MATCH (t:Page {title: l.target})
		MERGE (s)-[r:LINKS_TO]->(t)
		SET r.run_id = $run_id
	`

	PruneStalePagesQuery = `
		MATCH (n:Page)
		WHERE n.run_id <> $run_id
		DETACH DELETE n
	`

	PruneStaleLinksQuery = `
		MATCH (:Page)-[r:LINKS_TO]->(:Page)
		WHERE r.run_id <> $run_id
		DELETE r
	`

	MissingPagesQuery = `
		MATCH (src:Page)-[:LINKS_TO]->(n:Page {classification: 'missing'})
		RETURN n.title AS title, count(DISTINCT src) AS references
		ORDER BY references DESC, title ASC
		LIMIT $limit
	`

	PageLinksQuery = `
		MATCH (n:Page {title: $title})
		OPTIONAL MATCH (n)-[:LINKS_TO]->(out:Page)
		OPTIONAL MATCH (in:Page)-[:LINKS_TO]->(n)
		RETURN n.title AS title,
			n.exists AS exists,
			n.classification AS classification,
			n.aliases AS aliases,
			collect(DISTINCT out.title) AS outgoing,
			collect(DISTINCT in.title) AS incoming
	`
)
